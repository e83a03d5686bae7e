package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/MJE43/ctf-engine-go/internal/api"
	"github.com/MJE43/ctf-engine-go/internal/game"
	"github.com/MJE43/ctf-engine-go/internal/store"
)

const shutdownTimeout = 15 * time.Second

func main() {
	addr := flag.String("addr", getEnvOrDefault("CTF_ADDR", ":8080"), "HTTP listen address")
	dbPath := flag.String("db", getEnvOrDefault("CTF_DB", "ctf_matches.db"), "SQLite match archive path (empty disables the archive)")
	logLevel := flag.String("log-level", getEnvOrDefault("CTF_LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	logFormat := flag.String("log-format", getEnvOrDefault("CTF_LOG_FORMAT", "console"), "Log format: console or json")
	grace := flag.Duration("grace", getEnvDurationOrDefault("CTF_GRACE", 30*time.Second), "How long a finished game stays readable before it is discarded")
	workers := flag.Int("workers", getEnvIntOrDefault("CTF_WORKERS", runtime.GOMAXPROCS(0)), "Parallel placement trials per game")
	flag.Parse()

	logger, err := newLogger(*logLevel, *logFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := run(logger, *addr, *dbPath, *grace, *workers); err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}
}

func newLogger(level, format string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var logger zerolog.Logger
	switch format {
	case "json":
		logger = zerolog.New(os.Stdout)
	case "console":
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	default:
		return zerolog.Logger{}, fmt.Errorf("invalid log format %q", format)
	}
	return logger.Level(lvl).With().Timestamp().Logger(), nil
}

func run(logger zerolog.Logger, addr, dbPath string, grace time.Duration, workers int) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var archive store.Archive
	if dbPath != "" {
		db, err := store.NewSQLiteDB(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate %s: %w", dbPath, err)
		}
		archive = db
		logger.Info().Str("path", dbPath).Msg("match archive enabled")
	}

	var recorder game.Recorder
	if archive != nil {
		recorder = archive
	}
	sessions := api.NewSessions(
		logger.With().Str("component", "game").Logger(),
		recorder,
		game.WithGracePeriod(grace),
		game.WithWorkers(workers),
	)
	defer sessions.CloseAll()

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewServer(sessions, archive, logger).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().
			Str("addr", addr).
			Str("version", api.EngineVersion).
			Str("commit", api.GitCommit).
			Msg("listening")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func getEnvOrDefault(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		var i int
		if _, err := fmt.Sscanf(val, "%d", &i); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
