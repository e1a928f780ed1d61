package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	contactAuth "github.com/MrEthical07/contactAuth"
	"github.com/MrEthical07/contactAuth/internal/avatar"
	"github.com/MrEthical07/contactAuth/internal/config"
	"github.com/MrEthical07/contactAuth/internal/httpapi"
	"github.com/MrEthical07/contactAuth/internal/logging"
	"github.com/MrEthical07/contactAuth/internal/notify"
	"github.com/MrEthical07/contactAuth/internal/store/memory"
	"github.com/MrEthical07/contactAuth/internal/store/postgres"
	promexport "github.com/MrEthical07/contactAuth/metrics/export/prometheus"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE:  runServe,
	}

	defaults := config.Default()
	flags := cmd.Flags()
	flags.String("http.addr", defaults.HTTP.Addr, "listen address")
	flags.String("http.public_url", defaults.HTTP.PublicURL, "external base URL used in confirmation links")
	flags.String("postgres.dsn", defaults.Postgres.DSN, "postgres connection string; empty uses the in-memory store")
	flags.Bool("postgres.migrate_on_start", defaults.Postgres.MigrateOnStart, "apply migrations before serving")
	flags.String("redis.addr", defaults.Redis.Addr, "redis address")
	flags.String("log.level", defaults.Log.Level, "debug, info, warn or error")
	flags.String("log.format", defaults.Log.Format, "json or text")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := buildApp(ctx, cfg, logger)
	if err != nil {
		logging.LogError(logger, "startup failed", err)
		return err
	}
	defer app.close()

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           app.handler,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logging.LogError(logger, "http server failed", err)
			return oops.Code("HTTP_SERVE_FAILED").With("addr", cfg.HTTP.Addr).Wrap(err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return oops.Code("HTTP_SHUTDOWN_FAILED").Wrap(err)
	}
	return nil
}

type app struct {
	handler http.Handler
	closers []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func buildApp(ctx context.Context, cfg config.AppConfig, logger *slog.Logger) (*app, error) {
	a := &app{}
	fail := func(err error) (*app, error) {
		a.close()
		return nil, err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	a.closers = append(a.closers, func() { _ = rdb.Close() })

	store, err := openStore(ctx, cfg.Postgres, logger, a)
	if err != nil {
		return fail(err)
	}

	builder := contactAuth.New().
		WithConfig(cfg.Auth).
		WithRedis(rdb).
		WithPrincipalStore(store).
		WithLogger(logger).
		WithAuditSink(contactAuth.NewSlogSink(logger.With("component", "audit")))

	if cfg.SMTP.Host != "" {
		n, err := notify.NewSMTPNotifier(notify.Config{
			Host:      cfg.SMTP.Host,
			Port:      cfg.SMTP.Port,
			Username:  cfg.SMTP.Username,
			Password:  cfg.SMTP.Password,
			From:      cfg.SMTP.From,
			FromName:  cfg.SMTP.FromName,
			PublicURL: cfg.HTTP.PublicURL,
			Attempts:  cfg.SMTP.Attempts,
			Backoff:   cfg.SMTP.Backoff,
		})
		if err != nil {
			return fail(err)
		}
		builder.WithNotifier(n)
	} else {
		logger.Warn("smtp.host not set; verification links are logged instead of sent")
		builder.WithNotifier(logNotifier(logger, cfg.HTTP.PublicURL))
	}

	if cfg.S3.Bucket != "" {
		s, err := avatar.NewS3Storage(ctx, avatar.Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			PublicBaseURL:   cfg.S3.PublicBaseURL,
			UsePathStyle:    cfg.S3.UsePathStyle,
		})
		if err != nil {
			return fail(err)
		}
		builder.WithAvatarStorage(s)
	}

	engine, err := builder.Build()
	if err != nil {
		return fail(oops.Code("ENGINE_BUILD_FAILED").Wrap(err))
	}
	a.closers = append(a.closers, engine.Close)

	deps := httpapi.Deps{
		Service:    engine,
		Metrics:    promexport.Handler(engine),
		Logger:     logger,
		TrustProxy: cfg.HTTP.TrustProxy,
	}
	if cfg.HTTP.RequestsPerSecond > 0 {
		limiter := httpapi.NewIPLimiter(cfg.HTTP.RequestsPerSecond, cfg.HTTP.Burst, 0)
		a.closers = append(a.closers, limiter.Stop)
		deps.Limiter = limiter
	}
	a.handler = httpapi.NewRouter(deps)
	return a, nil
}

func openStore(ctx context.Context, cfg config.PostgresConfig, logger *slog.Logger, a *app) (contactAuth.PrincipalStore, error) {
	if cfg.DSN == "" {
		logger.Warn("postgres.dsn not set; using the in-memory principal store")
		return memory.New(), nil
	}

	if cfg.MigrateOnStart {
		if err := migrateUp(cfg.DSN); err != nil {
			return nil, err
		}
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	pool, err := postgres.Connect(connectCtx, cfg.DSN, cfg.MaxConns)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, pool.Close)
	return postgres.New(pool), nil
}

// logNotifier stands in for SMTP in development.
func logNotifier(logger *slog.Logger, publicURL string) contactAuth.NotifierFunc {
	return func(ctx context.Context, email, _ string, token string) error {
		logger.InfoContext(ctx, "verification link",
			"email", email,
			"link", publicURL+"/api/auth/confirmed_email/"+token,
		)
		return nil
	}
}
