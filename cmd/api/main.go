package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-redis/redis"
	"github.com/petermazzocco/snapgram/internal/auth"
	"github.com/petermazzocco/snapgram/internal/backend"
	"github.com/petermazzocco/snapgram/internal/config"
	"github.com/petermazzocco/snapgram/internal/handlers"
	"github.com/petermazzocco/snapgram/internal/log"
	"github.com/petermazzocco/snapgram/internal/query"
	"github.com/petermazzocco/snapgram/internal/storage"
	"github.com/petermazzocco/snapgram/internal/store"
	"gorm.io/driver/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Error.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database connection
	db, err := store.Open(postgres.Open(cfg.DSN))
	if err != nil {
		log.Error.Fatalf("connect to database: %v", err)
	}

	// Create custom HTTP client with TLS config
	tr := &http.Transport{
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
			MaxVersion: tls.VersionTLS13,
			CipherSuites: []uint16{
				tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
				tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
				tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
				tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
			},
		},
	}
	httpClient := &http.Client{Transport: tr}

	// R2 through the S3 API
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithHTTPClient(httpClient),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.Storage.AccessKeyID, cfg.Storage.AccessKeySecret, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		log.Error.Fatalf("load storage config: %v", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.Storage.AccountID))
	})
	files := storage.NewS3(client, cfg.Storage.Bucket, cfg.Storage.PublicURL)

	svc := backend.New(db, files,
		backend.WithSessionTTL(cfg.Session.MaxAge),
		backend.WithAvatarURL(func(name string) string {
			return cfg.Storage.PublicURL + "/avatars/initials?name=" + url.QueryEscape(name)
		}),
	)

	// Query cache
	var cache query.Cache = query.NewMemoryCache()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping().Err(); err != nil {
			log.Error.Fatalf("connect to redis at %s: %v", cfg.RedisAddr, err)
		}
		defer rdb.Close()
		cache = query.NewRedisCache(rdb, "snapgram:")
		log.Info.Printf("query cache: redis at %s", cfg.RedisAddr)
	}
	q := query.NewClient(cache, cfg.CacheTTL)

	// Sessions and OAuth
	cookies := auth.NewCookieStore(cfg.Session.Secret, cfg.Session.MaxAge, cfg.Session.Secure)
	providers := auth.UseProviders(cookies, cfg.OAuth.GoogleKey, cfg.OAuth.GoogleSecret, cfg.OAuth.CallbackURL)
	log.Info.Printf("oauth providers: %v", providers)

	go backend.NewSweeper(db, files).Run(ctx, cfg.SweepInterval)

	h := handlers.New(svc, q, auth.NewSessions(cookies), files)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.NewRouter(h, handlers.RouterOptions{RateLimit: cfg.RateLimitPerMinute, RequestLog: true}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn.Printf("shutdown: %v", err)
		}
	}()

	log.Info.Printf("Starting API server on :%s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error.Fatalf("serve: %v", err)
	}
}
