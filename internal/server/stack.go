package server

import (
	"fmt"

	"github.com/Sternrassler/compile-bytecodes/pkg/chunking"
	"github.com/Sternrassler/compile-bytecodes/pkg/compile"
	"github.com/Sternrassler/compile-bytecodes/pkg/config"
	"github.com/Sternrassler/compile-bytecodes/pkg/retry"
	"github.com/Sternrassler/compile-bytecodes/pkg/store"
	"github.com/redis/go-redis/v9"
)

// NewRedisClient creates the Redis client described by cfg.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// NewLoader builds the executor stack for cfg:
// chunking -> retry -> store. redisClient is only used by the redis backend.
func NewLoader(cfg config.Config, redisClient *redis.Client) (compile.Loader, error) {
	var backend compile.Loader
	switch cfg.Backend {
	case config.BackendMemory:
		backend = store.NewMemory()
	case config.BackendRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("redis backend requires a redis client")
		}
		backend = store.NewRedis(redisClient, cfg.Redis.KeyPrefix)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}

	retrying := retry.NewLoader[*compile.BytecodeInput, compile.IDObject](backend, retry.Config{
		MaxAttempts:    cfg.Loader.MaxAttempts,
		InitialBackoff: cfg.Loader.InitialBackoff,
	})

	return chunking.NewLoader[*compile.BytecodeInput, compile.IDObject](retrying, chunking.Config{
		ChunkSize:      cfg.Loader.ChunkSize,
		MaxConcurrency: cfg.Loader.MaxConcurrency,
		Timeout:        cfg.Loader.ChunkTimeout,
	}), nil
}
