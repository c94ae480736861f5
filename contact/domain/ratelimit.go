package domain

// Contratos do limitador de requisições por cliente, aplicado na borda HTTP
// antes do formulário. Cada cliente tem um bucket por Action: editar o
// rascunho a cada tecla não pode gastar a cota de envio.

import "time"

// Key identifica um cliente (IP, header, id de sessão).
type Key string

// Action classifica uma requisição da API do formulário.
type Action string

const (
	ActionRead   Action = "read"   // GET do estado, espera, histórico
	ActionEdit   Action = "edit"   // PATCH/DELETE do rascunho
	ActionSubmit Action = "submit" // POST do envio
)

// Quota é a taxa sustentada e a rajada de um bucket.
type Quota struct {
	RPS   float64
	Burst int
}

// RequestQuota consome um token do bucket (cliente, ação).
type RequestQuota interface {
	Take(key Key, action Action, now time.Time) Decision
	Quota(action Action) Quota
}

type Decision struct {
	Allowed bool
	// RetryAfter é quanto falta para o bucket ter um token. Zero quando
	// permitido.
	RetryAfter time.Duration
}
