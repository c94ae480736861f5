package domain

import (
	"context"
	"time"
)

// Outcome é o resultado de uma tentativa de envio.
type Outcome string

const (
	OutcomeAccepted  Outcome = "accepted"
	OutcomeThrottled Outcome = "throttled"
	OutcomeFailed    Outcome = "failed"
)

// StatsEvent representa uma tentativa de envio do formulário.
//
// Observação: cuidado com cardinalidade de Key (ex.: IP) ao persistir em
// bases como Redis.
type StatsEvent struct {
	Key     Key
	Outcome Outcome

	At time.Time
}

// StatsStore é a estratégia de persistência das estatísticas de envio.
//
// Implementações podem armazenar em Redis, memória, etc.
// Quem chama deve tratar erro como best-effort (não derrubar o envio).
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
