package infra

import (
	"context"
	"sync"

	"contact-gateway/contact/domain"
)

// Counters conta tentativas de envio por resultado.
type Counters struct {
	Accepted  int64 `json:"accepted"`
	Throttled int64 `json:"throttled"`
	Failed    int64 `json:"failed"`
}

func (c *Counters) add(o domain.Outcome) {
	switch o {
	case domain.OutcomeAccepted:
		c.Accepted++
	case domain.OutcomeThrottled:
		c.Throttled++
	case domain.OutcomeFailed:
		c.Failed++
	}
}

// MemoryStatsStore é uma implementação simples em memória.
// Útil para testes e instância única.
//
// Não faz expiração.
type MemoryStatsStore struct {
	mu    sync.Mutex
	total Counters
	byKey map[domain.Key]Counters

	trackKeys bool
}

type MemoryStatsOption func(*MemoryStatsStore)

func WithTrackKeys(track bool) MemoryStatsOption {
	return func(s *MemoryStatsStore) { s.trackKeys = track }
}

func NewMemoryStatsStore(opts ...MemoryStatsOption) *MemoryStatsStore {
	s := &MemoryStatsStore{byKey: make(map[domain.Key]Counters)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total.add(ev.Outcome)
	if s.trackKeys && ev.Key != "" {
		c := s.byKey[ev.Key]
		c.add(ev.Outcome)
		s.byKey[ev.Key] = c
	}
	return nil
}

func (s *MemoryStatsStore) Total() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// Totals implementa a leitura usada pelo endpoint de estatísticas.
func (s *MemoryStatsStore) Totals(context.Context) (Counters, error) {
	return s.Total(), nil
}

func (s *MemoryStatsStore) ByKey() map[domain.Key]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[domain.Key]Counters, len(s.byKey))
	for k, v := range s.byKey {
		out[k] = v
	}
	return out
}
