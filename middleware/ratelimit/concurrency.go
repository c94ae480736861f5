package ratelimit

import (
	"net/http"
	"time"

	"contact-gateway/contact/application"
	"contact-gateway/contact/domain"
	"contact-gateway/contact/infra"
)

// ConcurrencyOptions limita as requisições em processamento no servidor.
type ConcurrencyOptions struct {
	// Max <= 0 desliga o limite.
	Max            int
	RejectStatus   int
	AcquireTimeout time.Duration
	// Pool substitui o pool criado a partir de Max (útil para expor InUse).
	Pool domain.SlotPool
}

func ConcurrencyMiddleware(opts ConcurrencyOptions) func(next http.Handler) http.Handler {
	pool := opts.Pool
	if pool == nil {
		if opts.Max <= 0 {
			return func(next http.Handler) http.Handler { return next }
		}
		pool = infra.NewSlots(opts.Max)
	}
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusServiceUnavailable
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			release, ok := application.AcquireSlot(r.Context(), pool, opts.AcquireTimeout)
			if !ok {
				w.Header().Set("Retry-After", "1")
				rejectJSON(w, opts.RejectStatus, "overloaded")
				return
			}
			defer release()
			next.ServeHTTP(w, r)
		})
	}
}
