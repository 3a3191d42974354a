package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/petermazzocco/snapgram/internal/log"
)

type Config struct {
	Port string
	DSN  string

	// RedisAddr selects the Redis query cache; empty keeps the cache in memory.
	RedisAddr string
	CacheTTL  time.Duration

	Storage struct {
		AccountID       string
		AccessKeyID     string
		AccessKeySecret string
		Bucket          string
		// PublicURL is the externally reachable base of this service, used to
		// build preview and avatar URLs.
		PublicURL string
	}

	Session struct {
		Secret string
		Secure bool
		MaxAge time.Duration
	}

	OAuth struct {
		GoogleKey    string
		GoogleSecret string
		CallbackURL  string
	}

	SweepInterval      time.Duration
	RateLimitPerMinute int
}

// Load reads .env when present and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	cfg := &Config{}
	cfg.Port = getEnv("PORT", "3000")
	cfg.DSN = os.Getenv("DSN")
	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.CacheTTL = getDuration("CACHE_TTL", 5*time.Minute)

	cfg.Storage.AccountID = os.Getenv("ACCOUNT_ID")
	cfg.Storage.AccessKeyID = os.Getenv("ACCESS_KEY_ID")
	cfg.Storage.AccessKeySecret = os.Getenv("ACCESS_KEY_SECRET")
	cfg.Storage.Bucket = os.Getenv("BUCKET_NAME")
	cfg.Storage.PublicURL = getEnv("PUBLIC_URL", "http://localhost:3000")

	cfg.Session.Secret = os.Getenv("SESSION_SECRET")
	cfg.Session.Secure = getEnv("COOKIE_SECURE", "false") == "true"
	cfg.Session.MaxAge = getDuration("SESSION_MAX_AGE", 30*24*time.Hour)

	cfg.OAuth.GoogleKey = os.Getenv("GOOGLE_KEY")
	cfg.OAuth.GoogleSecret = os.Getenv("GOOGLE_SECRET")
	cfg.OAuth.CallbackURL = getEnv("OAUTH_CALLBACK_URL", "http://localhost:3000/auth/google/callback")

	cfg.SweepInterval = getDuration("SWEEP_INTERVAL", 10*time.Minute)
	cfg.RateLimitPerMinute = getInt("RATE_LIMIT_PER_MINUTE", 60)

	if cfg.DSN == "" {
		return nil, errors.New("DSN is required")
	}
	if cfg.Session.Secret == "" {
		return nil, errors.New("SESSION_SECRET is required")
	}
	if cfg.Storage.Bucket == "" {
		return nil, errors.New("BUCKET_NAME is required")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Warn.Printf("invalid %s=%q, using %s: %v", key, raw, fallback, err)
		return fallback
	}
	return d
}

func getInt(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Warn.Printf("invalid %s=%q, using %d: %v", key, raw, fallback, err)
		return fallback
	}
	return n
}
