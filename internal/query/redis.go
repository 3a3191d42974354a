package query

import (
	"context"
	"strings"
	"time"

	"github.com/go-redis/redis"
)

const scanCount = 100

// RedisCache shares query results between service instances. Every key is
// stored under namespace.
type RedisCache struct {
	client    *redis.Client
	namespace string
}

func NewRedisCache(client *redis.Client, namespace string) *RedisCache {
	return &RedisCache{client: client, namespace: namespace}
}

func (r *RedisCache) key(k string) string {
	return r.namespace + k
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := r.client.WithContext(ctx).Get(r.key(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.WithContext(ctx).Set(r.key(key), value, ttl).Err()
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	return r.client.WithContext(ctx).Del(r.key(key)).Err()
}

func (r *RedisCache) DeletePrefix(ctx context.Context, prefix string) error {
	client := r.client.WithContext(ctx)
	iter := client.Scan(0, globEscape(r.key(prefix))+"*", scanCount).Iterator()

	var keys []string
	for iter.Next() {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return client.Del(keys...).Err()
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func globEscape(s string) string {
	return globEscaper.Replace(s)
}
