package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Sternrassler/compile-bytecodes/internal/server"
	"github.com/Sternrassler/compile-bytecodes/pkg/compile"
	"github.com/Sternrassler/compile-bytecodes/pkg/config"
	"github.com/Sternrassler/compile-bytecodes/pkg/logging"
)

func main() {
	if err := newRootCmd(os.LookupEnv).Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd creates the root command. lookupEnv is injected for tests.
func newRootCmd(lookupEnv func(string) (string, bool)) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:          "bytecodes",
		Short:        "Bulk-load contract bytecodes and annotate compilations with their IDs",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")

	loadConfig := func() (config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return cfg, err
		}
		if err := cfg.ApplyEnv(lookupEnv); err != nil {
			return cfg, fmt.Errorf("environment: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return cfg, fmt.Errorf("invalid config: %w", err)
		}
		logging.Setup(cfg.LoggingConfig())
		return cfg, nil
	}

	cmd.AddCommand(newLoadCmd(loadConfig), newServeCmd(loadConfig))
	return cmd
}

func newLoadCmd(loadConfig func() (config.Config, error)) *cobra.Command {
	var (
		input  string
		output string
	)

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load the bytecodes of a compilations JSON file",
		Example: `  # Annotate compilations using the in-memory store
  bytecodes load --input compilations.json

  # Store bytecodes in Redis and write the result to a file
  BYTECODES_BACKEND=redis bytecodes load -i compilations.json -o out.json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			compilations, err := readCompilations(cmd.InOrStdin(), input)
			if err != nil {
				return err
			}

			redisClient := server.NewRedisClient(cfg.Redis)
			defer redisClient.Close()

			loader, err := server.NewLoader(cfg, redisClient)
			if err != nil {
				return err
			}

			start := time.Now()
			out, err := compile.LoadBytecodes(cmd.Context(), loader, compilations)
			if err != nil {
				return err
			}
			log.Info().
				Int("compilations", len(out)).
				Dur("duration", time.Since(start)).
				Msg("Bytecodes loaded")

			return writeCompilations(cmd.OutOrStdout(), output, out)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "-", "compilations JSON file ('-' for stdin)")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file ('-' for stdout)")
	return cmd
}

func newServeCmd(loadConfig func() (config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the bytecodes API over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			redisClient := server.NewRedisClient(cfg.Redis)
			defer redisClient.Close()

			// Readiness only depends on Redis when it backs the store
			var readyRedis *redis.Client
			if cfg.Backend == config.BackendRedis {
				if err := redisClient.Ping(cmd.Context()).Err(); err != nil {
					return fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Addr, err)
				}
				log.Info().Str("addr", cfg.Redis.Addr).Msg("Connected to Redis")
				readyRedis = redisClient
			}

			loader, err := server.NewLoader(cfg, redisClient)
			if err != nil {
				return err
			}

			httpServer := &http.Server{
				Addr:         cfg.Server.Addr,
				Handler:      server.New(loader, readyRedis, cfg.Server.WriteTimeout).Handler(),
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("addr", cfg.Server.Addr).Str("backend", string(cfg.Backend)).Msg("Starting bytecodes server")
				errCh <- httpServer.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server failed: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			log.Info().Msg("Shutting down bytecodes server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		},
	}
}

// readCompilations decodes compilations from path, or from stdin when path is "-".
func readCompilations(stdin io.Reader, path string) ([]compile.Compilation, error) {
	r := stdin
	if path != "-" && path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	var compilations []compile.Compilation
	if err := json.NewDecoder(r).Decode(&compilations); err != nil {
		return nil, fmt.Errorf("decode compilations: %w", err)
	}
	return compilations, nil
}

// writeCompilations encodes compilations to path, or to stdout when path is "-".
func writeCompilations(stdout io.Writer, path string, compilations []compile.Compilation) error {
	if path == "-" || path == "" {
		return encodeCompilations(stdout, compilations)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := encodeCompilations(f, compilations); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	return nil
}

func encodeCompilations(w io.Writer, compilations []compile.Compilation) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(compilations); err != nil {
		return fmt.Errorf("encode compilations: %w", err)
	}
	return nil
}
