package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"contact-gateway/contact"
	"contact-gateway/contact/domain"
	"contact-gateway/contact/infra"
	"contact-gateway/middleware/ratelimit"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func main() {
	// Exemplo: embutindo o formulário de contato no seu próprio webserver,
	// tudo em memória e com envio simulado.
	logger, _ := zap.NewDevelopment()
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	stats := infra.NewMemoryStatsStore()
	registry := contact.NewClientRegistry(contact.StoreDeps{
		Storage:   infra.NewMemoryKV(),
		Transport: infra.NewDelayTransport(500 * time.Millisecond),
		Stats:     stats,
		Logger:    logger,
	})
	registry.StartJanitor(ctx)

	buckets := infra.NewRequestBuckets(domain.Quota{RPS: 5, Burst: 10},
		infra.WithActionQuota(domain.ActionSubmit, domain.Quota{RPS: 0.1, Burst: 2}))
	buckets.StartJanitor(ctx)

	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Mount("/api", contact.NewRouter(contact.ServerOptions{
		API:   &contact.API{Registry: registry},
		Stats: stats,
		RequestLimit: &ratelimit.Options{
			Quota:               buckets,
			AddRateLimitHeaders: true,
		},
		Concurrency: ratelimit.ConcurrencyOptions{Max: 50},
		KeyFn:       ratelimit.DefaultKeyFunc("X-Api-Key", true), // ou vazio para usar IP
		Logger:      logger,
	}))

	addr := ":8081"
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		addr = v
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("example server listening", zap.String("addr", addr), zap.String("contact", "/api/contact"))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}
