package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sealbox/sealbox/internal/cache"
	"github.com/sealbox/sealbox/internal/crypto"
	"github.com/sealbox/sealbox/internal/httpapi"
	"github.com/sealbox/sealbox/internal/janitor"
	"github.com/sealbox/sealbox/internal/lifecycle"
	"github.com/sealbox/sealbox/internal/logging"
	"github.com/sealbox/sealbox/internal/store"
	"github.com/sealbox/sealbox/pkg/schema"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "sealbox:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := loadConfig()
	logger := newLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	st, err := store.NewLibSQLStore("file:" + cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	cipher, err := newCipher(cfg)
	if err != nil {
		return err
	}

	var mirror cache.Cache
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
		}
		mirror = cache.NewRedisCache(client)
		logger.Info("mirror cache: redis", "addr", cfg.RedisAddr)
	} else {
		mirror = cache.NewMemoryCache()
		logger.Info("mirror cache: in-process")
	}

	validator, err := schema.NewRequestValidator()
	if err != nil {
		return fmt.Errorf("compile request schemas: %w", err)
	}

	svc := lifecycle.NewService(lifecycle.Deps{
		Store:      st,
		Cache:      mirror,
		Cipher:     cipher,
		Audit:      store.NewAuditLog(st),
		Logger:     logger,
		CacheTTL:   time.Duration(cfg.CacheTTLSeconds) * time.Second,
		BcryptCost: cfg.BcryptCost,
	})

	jan, err := janitor.New(st, cfg.ShredSchedule,
		time.Duration(cfg.ShredRetentionHours)*time.Hour, logger)
	if err != nil {
		return err
	}
	if err := jan.Start(ctx); err != nil {
		return err
	}
	defer jan.Stop()

	api := httpapi.NewServer(httpapi.Deps{Service: svc, Validator: validator, Logger: logger})
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// newCipher builds the payload cipher from process-wide key material.
func newCipher(cfg Config) (*crypto.Cipher, error) {
	ccfg := crypto.CipherConfig{}
	if cfg.MasterKeyHex != "" {
		key, err := hex.DecodeString(cfg.MasterKeyHex)
		if err != nil {
			return nil, fmt.Errorf("decode master key: %w", err)
		}
		ccfg.MasterKey = key
	} else {
		salt, err := hex.DecodeString(cfg.KeySaltHex)
		if err != nil {
			return nil, fmt.Errorf("decode key salt: %w", err)
		}
		ccfg.Passphrase = cfg.KeyPassphrase
		ccfg.Salt = salt
	}
	return crypto.NewCipher(ccfg)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	inner := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return slog.New(logging.NewCorrelationHandler(inner))
}
