package contact

import (
	"context"
	"time"

	"contact-gateway/contact/application"
	"contact-gateway/contact/domain"
	"contact-gateway/contact/infra"

	"go.uber.org/zap"
)

// StoreDeps são as dependências compartilhadas por todos os clientes.
type StoreDeps struct {
	Storage   domain.KVStore
	Transport domain.Transport
	Stats     domain.StatsStore
	Limit     int
	Window    time.Duration
	Now       func() time.Time
	Logger    *zap.Logger
}

// NewClientRegistry cria um Registry cujo FormStore de cada cliente usa o
// namespace "client:<chave>" no KVStore compartilhado.
func NewClientRegistry(deps StoreDeps, opts ...application.RegistryOption) *application.Registry {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	return application.NewRegistry(func(ctx context.Context, key domain.Key) *application.FormStore {
		kv := infra.NewNamespace(deps.Storage, "client:"+string(key))
		clientLog := logger.With(zap.String("client", string(key)))

		gateOpts := []application.ThrottleOption{
			application.WithThrottleClock(now),
			application.WithThrottleLogger(clientLog),
		}
		if deps.Limit > 0 {
			gateOpts = append(gateOpts, application.WithThrottleLimit(deps.Limit))
		}
		if deps.Window > 0 {
			gateOpts = append(gateOpts, application.WithThrottleWindow(deps.Window))
		}

		return application.NewFormStore(ctx, application.FormStoreConfig{
			Storage:   kv,
			Gate:      application.NewThrottleGate(kv, gateOpts...),
			Transport: deps.Transport,
			Stats:     deps.Stats,
			Key:       key,
			Now:       now,
			Logger:    clientLog,
		})
	}, opts...)
}
