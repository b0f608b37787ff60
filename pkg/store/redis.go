package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Sternrassler/compile-bytecodes/pkg/batch"
	"github.com/Sternrassler/compile-bytecodes/pkg/compile"
	"github.com/redis/go-redis/v9"
)

// Redis is a bytecode store backed by Redis. Entries never expire.
type Redis struct {
	redis  *redis.Client
	prefix string
}

// NewRedis creates a Redis-backed store. All keys are namespaced by prefix.
func NewRedis(redisClient *redis.Client, prefix string) *Redis {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &Redis{
		redis:  redisClient,
		prefix: prefix,
	}
}

// Load stores every input of req in one pipeline and returns their
// IDObjects in request order. Existing entries are left untouched.
func (r *Redis) Load(ctx context.Context, req batch.Request[*compile.BytecodeInput]) ([]compile.IDObject, error) {
	entries, err := newEntries(req.Kind, req.Inputs)
	if err != nil {
		StoreErrors.WithLabelValues("redis", "load").Inc()
		return nil, err
	}
	if len(entries) == 0 {
		return []compile.IDObject{}, nil
	}

	pipe := r.redis.Pipeline()
	cmds := make([]*redis.BoolCmd, len(entries))
	for i, e := range entries {
		data, err := json.Marshal(e)
		if err != nil {
			StoreErrors.WithLabelValues("redis", "load").Inc()
			return nil, fmt.Errorf("marshal entry: %w", err)
		}
		cmds[i] = pipe.SetNX(ctx, r.key(req.Kind, e.ID), data, 0)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		StoreErrors.WithLabelValues("redis", "load").Inc()
		return nil, fmt.Errorf("redis pipeline: %w", err)
	}

	for _, cmd := range cmds {
		if cmd.Val() {
			StoreWrites.WithLabelValues("redis", "stored").Inc()
		} else {
			StoreWrites.WithLabelValues("redis", "deduplicated").Inc()
		}
	}

	return idObjects(entries), nil
}

// Get retrieves an entry by ID.
// Returns ErrNotFound if the entry doesn't exist.
func (r *Redis) Get(ctx context.Context, id string) (*Entry, error) {
	data, err := r.redis.Get(ctx, r.key(compile.ResourceBytecodes, id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		StoreErrors.WithLabelValues("redis", "get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		StoreErrors.WithLabelValues("redis", "get").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	return &entry, nil
}

// Delete removes an entry.
func (r *Redis) Delete(ctx context.Context, id string) error {
	if err := r.redis.Del(ctx, r.key(compile.ResourceBytecodes, id)).Err(); err != nil {
		StoreErrors.WithLabelValues("redis", "delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (r *Redis) key(kind, id string) string {
	return Key{Prefix: r.prefix, Kind: kind, ID: id}.String()
}
