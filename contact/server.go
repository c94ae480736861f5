package contact

import (
	"context"
	"net/http"
	"time"

	"contact-gateway/contact/infra"
	"contact-gateway/middleware/ratelimit"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// StatsReader lê os contadores agregados de envio.
type StatsReader interface {
	Totals(ctx context.Context) (infra.Counters, error)
}

type ServerOptions struct {
	API   *API
	Stats StatsReader
	// RequestLimit nil desliga o token bucket por cliente.
	RequestLimit *ratelimit.Options
	Concurrency  ratelimit.ConcurrencyOptions
	KeyFn        ratelimit.KeyFunc
	Logger       *zap.Logger
}

// NewRouter monta o servidor: request id, log, recuperação de panic,
// limite de concorrência, rate limit por cliente e as rotas do formulário.
func NewRouter(opts ServerOptions) http.Handler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.KeyFn == nil {
		opts.KeyFn = ratelimit.DefaultKeyFunc("", false)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(opts.Logger))
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "the requested resource was not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed for this resource")
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if opts.Stats != nil {
		r.Get("/stats", func(w http.ResponseWriter, req *http.Request) {
			c, err := opts.Stats.Totals(req.Context())
			if err != nil {
				opts.Logger.Warn("stats unavailable", zap.Error(err))
				writeError(w, http.StatusServiceUnavailable, "stats_unavailable", "stats backend unavailable")
				return
			}
			writeJSON(w, http.StatusOK, c)
		})
	}

	r.Group(func(r chi.Router) {
		r.Use(ratelimit.ConcurrencyMiddleware(opts.Concurrency))
		if opts.RequestLimit != nil {
			rl := *opts.RequestLimit
			if rl.KeyFn == nil {
				rl.KeyFn = opts.KeyFn
			}
			if rl.Logger == nil {
				rl.Logger = opts.Logger
			}
			r.Use(ratelimit.Middleware(rl))
		} else {
			r.Use(ratelimit.KeyMiddleware(opts.KeyFn))
		}

		if opts.API.KeyFn == nil {
			opts.API.KeyFn = opts.KeyFn
		}
		if opts.API.Logger == nil {
			opts.API.Logger = opts.Logger
		}
		r.Mount("/contact", opts.API.Routes())
	})

	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Debug("http request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)))
		})
	}
}
