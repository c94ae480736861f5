package infra

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisKV é um KVStore sobre Redis (GET/SET/DEL), compartilhável entre
// réplicas do servidor.
//
// Não há transação no read-modify-write do log de envios: réplicas
// concorrentes no mesmo cliente podem se sobrepor.
type RedisKV struct {
	rdb redis.Cmdable

	prefix string
	// ttl aplica a todas as chaves gravadas; 0 = sem expiração.
	ttl time.Duration
}

type RedisKVOption func(*RedisKV)

func WithKVPrefix(prefix string) RedisKVOption {
	return func(s *RedisKV) { s.prefix = strings.Trim(prefix, ":") }
}

func WithKVTTL(d time.Duration) RedisKVOption {
	return func(s *RedisKV) { s.ttl = d }
}

func NewRedisKV(rdb redis.Cmdable, opts ...RedisKVOption) *RedisKV {
	s := &RedisKV{
		rdb:    rdb,
		prefix: "contact:kv",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisKV) key(k string) string {
	if s.prefix == "" {
		return k
	}
	return s.prefix + ":" + k
}

func (s *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *RedisKV) Set(ctx context.Context, key, value string) error {
	return s.rdb.Set(ctx, s.key(key), value, s.ttl).Err()
}

func (s *RedisKV) Delete(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, s.key(key)).Err()
}
