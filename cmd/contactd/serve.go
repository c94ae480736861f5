package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"contact-gateway/contact"
	"contact-gateway/contact/application"
	"contact-gateway/middleware/ratelimit"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the contact form HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), a)
		},
	}
}

func serve(parent context.Context, a *app) error {
	cfg := a.cfg
	logger, err := newLogger(cfg.Log, false)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	d, err := buildDeps(ctx, cfg, false, logger)
	if err != nil {
		return err
	}
	defer d.Close()

	registry := contact.NewClientRegistry(contact.StoreDeps{
		Storage:   d.storage,
		Transport: d.transport,
		Stats:     d.stats,
		Limit:     cfg.Throttle.Limit,
		Window:    cfg.Throttle.Window,
		Logger:    logger,
	},
		application.WithIdleTTL(cfg.Registry.IdleTTL),
		application.WithCleanupEvery(cfg.Registry.CleanupEvery),
	)
	registry.StartJanitor(ctx)

	keyFn := ratelimit.DefaultKeyFunc(cfg.KeyHeader, cfg.TrustXFF)

	var requestLimit *ratelimit.Options
	if cfg.RequestLimit.Enabled {
		buckets := newRequestBuckets(cfg.RequestLimit)
		buckets.StartJanitor(ctx)
		requestLimit = &ratelimit.Options{
			Quota:               buckets,
			RejectStatus:        http.StatusTooManyRequests,
			AddRateLimitHeaders: cfg.RequestLimit.AddHeaders,
		}
	}

	h := contact.NewRouter(contact.ServerOptions{
		API:          &contact.API{Registry: registry},
		Stats:        d.totals,
		RequestLimit: requestLimit,
		Concurrency: ratelimit.ConcurrencyOptions{
			Max:            cfg.Concurrency.Max,
			RejectStatus:   http.StatusServiceUnavailable,
			AcquireTimeout: cfg.Concurrency.AcquireTimeout,
		},
		KeyFn:  keyFn,
		Logger: logger,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("contactd listening",
		zap.String("addr", cfg.ListenAddr),
		zap.String("storage", cfg.Storage.Driver),
		zap.String("transport", cfg.Transport.Driver),
		zap.Int("throttle_limit", cfg.Throttle.Limit),
		zap.Duration("throttle_window", cfg.Throttle.Window))
	logger.Info("request limits",
		zap.Bool("enabled", cfg.RequestLimit.Enabled),
		zap.Float64("rps", cfg.RequestLimit.RPS),
		zap.Int("burst", cfg.RequestLimit.Burst),
		zap.String("key_header", cfg.KeyHeader),
		zap.Bool("trust_xff", cfg.TrustXFF),
		zap.Int("concurrency_max", cfg.Concurrency.Max))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", zap.Error(err))
		return err
	}
	return nil
}
