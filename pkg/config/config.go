// Package config loads service configuration from YAML with environment
// variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/Sternrassler/compile-bytecodes/pkg/logging"
)

// Backend selects the bytecode store.
type Backend string

const (
	// BackendMemory keeps bytecodes in process memory.
	BackendMemory Backend = "memory"

	// BackendRedis stores bytecodes in Redis.
	BackendRedis Backend = "redis"
)

// Config is the full service configuration.
type Config struct {
	Backend Backend       `yaml:"backend"`
	Redis   RedisConfig   `yaml:"redis"`
	Loader  LoaderConfig  `yaml:"loader"`
	Logging LoggingConfig `yaml:"logging"`
	Server  ServerConfig  `yaml:"server"`
}

// RedisConfig configures the Redis backend.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// LoaderConfig configures chunking and retries around the store.
type LoaderConfig struct {
	ChunkSize      int           `yaml:"chunk_size"`
	MaxConcurrency int           `yaml:"max_concurrency"`
	ChunkTimeout   time.Duration `yaml:"chunk_timeout"`
	MaxAttempts    int           `yaml:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
}

// LoggingConfig configures zerolog.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Default returns a configuration that runs fully in memory.
func Default() Config {
	return Config{
		Backend: BackendMemory,
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			KeyPrefix: "compile-bytecodes",
		},
		Loader: LoaderConfig{
			ChunkSize:      500,
			MaxConcurrency: 4,
			ChunkTimeout:   15 * time.Second,
			MaxAttempts:    3,
			InitialBackoff: 200 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level: string(logging.LevelInfo),
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

// ApplyEnv overrides fields from environment variables using lookup.
// Pass os.LookupEnv outside tests.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = n
		}
		return nil
	}

	var backend string
	str("BYTECODES_BACKEND", &backend)
	if backend != "" {
		c.Backend = Backend(backend)
	}

	str("REDIS_URL", &c.Redis.Addr)
	str("REDIS_PASSWORD", &c.Redis.Password)
	str("REDIS_KEY_PREFIX", &c.Redis.KeyPrefix)
	str("LOG_LEVEL", &c.Logging.Level)

	if v, ok := lookup("PORT"); ok && v != "" {
		c.Server.Addr = ":" + v
	}
	if v, ok := lookup("LOG_PRETTY"); ok && v != "" {
		pretty, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LOG_PRETTY: %w", err)
		}
		c.Logging.Pretty = pretty
	}

	var result *multierror.Error
	for key, dst := range map[string]*int{
		"REDIS_DB":                  &c.Redis.DB,
		"BYTECODES_CHUNK_SIZE":      &c.Loader.ChunkSize,
		"BYTECODES_MAX_CONCURRENCY": &c.Loader.MaxConcurrency,
		"BYTECODES_MAX_ATTEMPTS":    &c.Loader.MaxAttempts,
	} {
		result = multierror.Append(result, num(key, dst))
	}
	return result.ErrorOrNil()
}

// Validate checks the configuration for values the loaders cannot run with.
func (c Config) Validate() error {
	var result *multierror.Error

	switch c.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Redis.Addr == "" {
			result = multierror.Append(result, errors.New("redis.addr is required for the redis backend"))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("unknown backend %q (want memory or redis)", c.Backend))
	}

	if c.Loader.ChunkSize <= 0 {
		result = multierror.Append(result, fmt.Errorf("loader.chunk_size must be > 0 (got %d)", c.Loader.ChunkSize))
	}
	if c.Loader.MaxConcurrency <= 0 {
		result = multierror.Append(result, fmt.Errorf("loader.max_concurrency must be > 0 (got %d)", c.Loader.MaxConcurrency))
	}
	if c.Loader.MaxAttempts <= 0 {
		result = multierror.Append(result, fmt.Errorf("loader.max_attempts must be > 0 (got %d)", c.Loader.MaxAttempts))
	}
	if !logging.LogLevel(c.Logging.Level).Valid() {
		result = multierror.Append(result, fmt.Errorf("unknown logging.level %q", c.Logging.Level))
	}

	return result.ErrorOrNil()
}

// LoggingConfig returns the logging.Config for c.
func (c Config) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.LogLevel(c.Logging.Level)
	cfg.Pretty = c.Logging.Pretty
	cfg.Service = "bytecodes"
	return cfg
}
