package application

import (
	"context"
	"time"

	"contact-gateway/contact/domain"
)

// AcquireSlot pega uma vaga do pool esperando no máximo wait
// (wait <= 0 espera até o ctx encerrar). Pool nil sempre libera.
func AcquireSlot(ctx context.Context, pool domain.SlotPool, wait time.Duration) (func(), bool) {
	if pool == nil {
		return func() {}, true
	}
	if wait <= 0 {
		return pool.Acquire(ctx)
	}
	acqCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	return pool.Acquire(acqCtx)
}

// LimitedTransport limita quantos envios ficam em andamento ao mesmo tempo
// no transporte real (conexões SMTP, chamadas ao webhook), somando todos os
// clientes.
type LimitedTransport struct {
	Next domain.Transport
	Pool domain.SlotPool
	Wait time.Duration
}

// DefaultSendWait é a espera por vaga quando nenhuma é configurada. O envio
// roda desligado do cancelamento do chamador, então a espera precisa de limite.
const DefaultSendWait = 5 * time.Second

// LimitTransport devolve next sem alteração quando pool é nil.
func LimitTransport(next domain.Transport, pool domain.SlotPool, wait time.Duration) domain.Transport {
	if pool == nil {
		return next
	}
	if wait <= 0 {
		wait = DefaultSendWait
	}
	return &LimitedTransport{Next: next, Pool: pool, Wait: wait}
}

func (t *LimitedTransport) Name() string { return transportName(t.Next) }

func (t *LimitedTransport) Send(ctx context.Context, payload domain.FormDraft) (domain.Ack, error) {
	release, ok := AcquireSlot(ctx, t.Pool, t.Wait)
	if !ok {
		return domain.Ack{}, domain.ErrTransportBusy
	}
	defer release()
	return t.Next.Send(ctx, payload)
}
