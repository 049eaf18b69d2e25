// Command gophauth-server serves the OAuth2 authorization-code endpoints.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/and161185/gophauth/internal/codestore"
	"github.com/and161185/gophauth/internal/config"
	"github.com/and161185/gophauth/internal/limiter"
	"github.com/and161185/gophauth/internal/metrics"
	"github.com/and161185/gophauth/internal/migrate"
	"github.com/and161185/gophauth/internal/repository/postgres"
	httpserver "github.com/and161185/gophauth/internal/server/http"
	"github.com/and161185/gophauth/internal/service"
	"github.com/and161185/gophauth/internal/token"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func newLogger(level zapcore.Level) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zc.Build()
}

// main loads configuration, runs migrations, wires the stores and serves HTTP until signalled.
func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		// logger level is part of the config, so report on a default logger
		zap.NewExample().Fatal("config", zap.Error(err))
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr),
		zap.String("codeStore", cfg.CodeStore),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg, logger)
	stop()
	if err != nil {
		logger.Error("server stopped", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	logger.Info("shutdown complete")
	_ = logger.Sync()
}

// run owns every resource it opens; all of them are closed before it returns.
func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if err := migrate.Up(ctx, cfg.DSN, logger); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}

	db, err := postgres.New(ctx, cfg.DSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	health := []func(context.Context) error{db.Pool.Ping}

	var codes codestore.Store
	switch cfg.CodeStore {
	case config.CodeStoreMemory:
		mem := codestore.NewMemory()
		go mem.Run(ctx, time.Minute)
		codes = mem
		logger.Warn("in-memory code store: codes are single-use within this process only")
	default:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer func() { _ = rdb.Close() }()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		health = append(health, func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
		codes = codestore.NewRedis(rdb)
	}

	users := postgres.NewUserRepo(db)
	issuer, err := token.NewIssuer([]byte(cfg.TokenSecret), users, postgres.NewTokenRepo(db))
	if err != nil {
		return fmt.Errorf("token issuer: %w", err)
	}

	var lim limiter.Limiter = limiter.Nop{}
	if cfg.LoginMaxFails > 0 {
		lim = limiter.NewPG(db.Pool, cfg.LoginWindow, cfg.LoginMaxFails, cfg.LoginBlockFor)
	}

	var m *metrics.Metrics
	if cfg.Metrics {
		m = metrics.New()
	}

	svc := service.NewOAuthService(service.Deps{
		Clients: postgres.NewClientRepo(db),
		Users:   users,
		Codes:   codes,
		Tokens:  issuer,
		Limiter: lim,
		Metrics: m,
		Log:     logger.Named("oauth"),
		CodeTTL: cfg.CodeTTL,
	})

	handler := httpserver.New(svc, logger.Named("http"), httpserver.Options{
		Metrics:    m,
		TrustProxy: cfg.TrustProxy,
		Health: func(ctx context.Context) error {
			for _, check := range health {
				if err := check(ctx); err != nil {
					return err
				}
			}
			return nil
		},
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
		ErrorLog:          zap.NewStdLog(logger.Named("net/http")),
	}
	return serve(ctx, srv, cfg, logger)
}

// serve listens until ctx is done, then shuts srv down within cfg.ShutdownTimeout.
// A listener failure is returned.
func serve(ctx context.Context, srv *http.Server, cfg *config.Config, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		if cfg.TLS() {
			logger.Info("listening (TLS)", zap.String("addr", srv.Addr))
			errCh <- srv.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
			return
		}
		logger.Info("listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shCtx); err != nil {
			logger.Warn("graceful shutdown timed out", zap.Error(err))
			_ = srv.Close()
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	}
}
