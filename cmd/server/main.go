package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/iudanet/gophbudget/internal/config"
	"github.com/iudanet/gophbudget/internal/logging"
	"github.com/iudanet/gophbudget/internal/server"
	"github.com/iudanet/gophbudget/internal/server/idempotency"
	"github.com/iudanet/gophbudget/internal/server/jwt"
	"github.com/iudanet/gophbudget/internal/server/middleware"
	"github.com/iudanet/gophbudget/internal/server/storage/sqlite"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// Лимит на регистрацию и вход с одного IP
const (
	authRequests = 20
	authWindow   = time.Minute
)

func main() {
	// .env необязателен
	_ = godotenv.Load()

	v := config.NewServerViper()
	fs := pflag.NewFlagSet("gophbudget-server", pflag.ExitOnError)
	showVersion := fs.Bool("version", false, "Show version information")
	configPath := fs.String("config", "", "Path to YAML config file")
	if err := config.RegisterServerFlags(v, fs); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	_ = fs.Parse(os.Args[1:])

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	cfg, err := config.LoadServer(v, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Server, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("GophBudget Server starting...", "version", Version, "addr", cfg.Addr)

	store, err := sqlite.New(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close database", "error", err)
		}
	}()

	var idem idempotency.Store
	if cfg.Redis.URL != "" {
		redisClient, err := idempotency.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error("Failed to close redis client", "error", err)
			}
		}()
		idem = idempotency.NewRedisStore(redisClient, cfg.Idempotency.TTL)
		logger.Info("Idempotency keys stored in redis")
	} else {
		idem = idempotency.NewMemoryStore(cfg.Idempotency.TTL)
		logger.Info("Idempotency keys stored in memory")
	}

	writeLimit := middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window, logger)
	defer writeLimit.Stop()
	authLimit := middleware.NewRateLimiter(authRequests, authWindow, logger)
	defer authLimit.Stop()

	router := server.NewRouter(server.Deps{
		Logger:      logger,
		Users:       store,
		Finance:     store,
		DB:          store,
		Idempotency: idem,
		WriteLimit:  writeLimit,
		AuthLimit:   authLimit,
		JWT: jwt.Config{
			Secret:         []byte(cfg.JWT.Secret),
			AccessTokenTTL: cfg.JWT.TTL,
		},
		Version: Version,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info("Server stopped gracefully")
	return nil
}

func printVersion() {
	fmt.Printf("GophBudget Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
