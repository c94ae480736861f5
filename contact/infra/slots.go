package infra

import (
	"context"
	"sync"

	"contact-gateway/contact/domain"
)

// Slots é um SlotPool sobre um channel com buffer.
type Slots struct {
	sem chan struct{}
}

var _ domain.SlotPool = (*Slots)(nil)

func NewSlots(max int) *Slots {
	if max < 1 {
		max = 1
	}
	return &Slots{sem: make(chan struct{}, max)}
}

func (s *Slots) Acquire(ctx context.Context) (func(), bool) {
	// ctx já encerrado não disputa vaga com o select abaixo
	if ctx.Err() != nil {
		return nil, false
	}
	select {
	case s.sem <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-s.sem }) }, true
	case <-ctx.Done():
		return nil, false
	}
}

func (s *Slots) InUse() int { return len(s.sem) }
func (s *Slots) Cap() int   { return cap(s.sem) }
