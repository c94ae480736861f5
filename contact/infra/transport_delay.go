package infra

import (
	"context"
	"time"

	"contact-gateway/contact/domain"

	"github.com/google/uuid"
)

// DelayTransport simula a chamada de rede: responde depois de um atraso fixo.
// Com Err definido, falha com esse erro depois do mesmo atraso.
type DelayTransport struct {
	Delay time.Duration
	Err   error
	Now   func() time.Time
}

func NewDelayTransport(delay time.Duration) *DelayTransport {
	return &DelayTransport{Delay: delay, Now: time.Now}
}

func (t *DelayTransport) Name() string { return "delay" }

func (t *DelayTransport) Send(ctx context.Context, payload domain.FormDraft) (domain.Ack, error) {
	if t.Delay > 0 {
		timer := time.NewTimer(t.Delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return domain.Ack{}, ctx.Err()
		}
	}
	if t.Err != nil {
		return domain.Ack{}, t.Err
	}

	now := time.Now
	if t.Now != nil {
		now = t.Now
	}
	return domain.Ack{ID: uuid.NewString(), Transport: t.Name(), ReceivedAt: now()}, nil
}
