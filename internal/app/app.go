// Package app wires configuration, storage, the use case and the HTTP server together.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/go-chi/httplog/v2"
	"github.com/vadimbarashkov/shorturl/internal/adapter/repository/postgres"
	"github.com/vadimbarashkov/shorturl/internal/config"
	"github.com/vadimbarashkov/shorturl/internal/usecase"
	"github.com/vadimbarashkov/shorturl/migrations"
	"golang.org/x/sync/errgroup"

	deliveryHttp "github.com/vadimbarashkov/shorturl/internal/adapter/delivery/http"
	pgpool "github.com/vadimbarashkov/shorturl/pkg/postgres"
)

const serviceName = "url-shortener"

func newLogger(cfg *config.Config) *httplog.Logger {
	prod := cfg.Env == config.EnvProd

	return httplog.NewLogger(serviceName, httplog.Options{
		JSON:             prod,
		LogLevel:         cfg.Level(),
		Concise:          !prod,
		RequestHeaders:   prod,
		MessageFieldName: "message",
		Tags: map[string]string{
			"env": cfg.Env,
		},
	})
}

// Run starts the service and blocks until ctx is cancelled or the server fails.
func Run(ctx context.Context, cfg *config.Config) error {
	const op = "app.Run"

	logger := newLogger(cfg)

	db, err := pgpool.New(
		ctx,
		cfg.Postgres.DSN(),
		pgpool.WithConnMaxIdleTime(cfg.Postgres.ConnMaxIdleTime),
		pgpool.WithConnMaxLifetime(cfg.Postgres.ConnMaxLifetime),
		pgpool.WithMaxIdleConns(cfg.Postgres.MaxIdleConns),
		pgpool.WithMaxOpenConns(cfg.Postgres.MaxOpenConns),
	)
	if err != nil {
		return fmt.Errorf("%s: failed to connect to database: %w", op, err)
	}
	defer db.Close()

	if err := pgpool.RunMigrations(migrations.FS, cfg.Postgres.DSN()); err != nil {
		return fmt.Errorf("%s: failed to run migrations: %w", op, err)
	}

	urlRepo := postgres.NewURLRepository(db)
	urlUseCase := usecase.NewURLUseCase(
		urlRepo,
		usecase.WithShortCodeLength(cfg.ShortCode.Length),
		usecase.WithMaxAttempts(cfg.ShortCode.MaxAttempts),
		usecase.WithSaltFunc(usecase.NanoIDSalt(cfg.ShortCode.SaltLength)),
		usecase.WithLogger(logger.Logger),
	)

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        deliveryHttp.NewRouter(logger, urlUseCase),
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting server", "addr", server.Addr, "env", cfg.Env)

		var err error

		switch cfg.Env {
		case config.EnvProd:
			err = server.ListenAndServeTLS(cfg.HTTPServer.CertFile, cfg.HTTPServer.KeyFile)
		default:
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: server error occurred: %w", op, err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: failed to shutdown server: %w", op, err)
		}

		return nil
	})

	return g.Wait()
}
