package ratelimit

import (
	"math"
	"net/http"
	"strings"
	"time"

	"contact-gateway/contact/domain"

	"go.uber.org/zap"
)

// ActionFunc classifica a requisição para escolher o bucket do cliente.
type ActionFunc func(r *http.Request) domain.Action

// ContactAction é a classificação das rotas do formulário: leituras,
// edições do rascunho (uma por tecla) e o envio.
func ContactAction(r *http.Request) domain.Action {
	switch {
	case r.Method == http.MethodGet || r.Method == http.MethodHead:
		return domain.ActionRead
	case r.Method == http.MethodPost && strings.HasSuffix(strings.TrimSuffix(r.URL.Path, "/"), "/submit"):
		return domain.ActionSubmit
	default:
		return domain.ActionEdit
	}
}

type Options struct {
	Quota               domain.RequestQuota
	KeyFn               KeyFunc
	ActionFn            ActionFunc
	KeyHeader           string
	TrustXForwardedFor  bool
	RejectStatus        int
	AddRateLimitHeaders bool
	Now                 func() time.Time
	Logger              *zap.Logger
}

func Middleware(opts Options) func(next http.Handler) http.Handler {
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusTooManyRequests
	}
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc(opts.KeyHeader, opts.TrustXForwardedFor)
	}
	if opts.ActionFn == nil {
		opts.ActionFn = ContactAction
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := opts.KeyFn(r)
			r = r.WithContext(WithClientKey(r.Context(), key))

			if opts.Quota == nil {
				next.ServeHTTP(w, r)
				return
			}

			action := opts.ActionFn(r)
			if opts.AddRateLimitHeaders {
				q := opts.Quota.Quota(action)
				w.Header().Set("X-RateLimit-Key", key)
				w.Header().Set("X-RateLimit-Action", string(action))
				w.Header().Set("X-RateLimit-RPS", formatFloat(q.RPS))
				w.Header().Set("X-RateLimit-Burst", formatInt(q.Burst))
			}

			dec := opts.Quota.Take(domain.Key(key), action, opts.Now())
			if !dec.Allowed {
				opts.Logger.Debug("request rate limited",
					zap.String("client", key),
					zap.String("action", string(action)),
					zap.Duration("retry_after", dec.RetryAfter))
				w.Header().Set("Retry-After", formatInt(retryAfterSeconds(dec.RetryAfter)))
				rejectJSON(w, opts.RejectStatus, "rate_limited")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// retryAfterSeconds arredonda para cima, nunca abaixo de 1s.
func retryAfterSeconds(d time.Duration) int {
	return max(1, int(math.Ceil(d.Seconds())))
}
