package application

import (
	"context"
	"sync"
	"time"

	"contact-gateway/contact/domain"
)

// StoreFactory cria o FormStore de um cliente. Chamado uma vez por chave
// (ou de novo depois que a entrada foi despejada por inatividade).
type StoreFactory func(ctx context.Context, key domain.Key) *FormStore

// Registry mantém um FormStore por cliente, com limpeza periódica das
// entradas inativas. O rascunho e o log de envios vivem no KVStore, então
// recriar um store despejado não perde estado persistido (só o histórico
// em memória).
type Registry struct {
	mu           sync.Mutex
	entries      map[domain.Key]*registryEntry
	factory      StoreFactory
	idleTTL      time.Duration
	cleanupEvery time.Duration
	now          func() time.Time
}

type registryEntry struct {
	store    *FormStore
	lastSeen time.Time
}

type RegistryOption func(*Registry)

func WithIdleTTL(d time.Duration) RegistryOption {
	return func(r *Registry) { r.idleTTL = d }
}

func WithCleanupEvery(d time.Duration) RegistryOption {
	return func(r *Registry) { r.cleanupEvery = d }
}

func WithRegistryClock(now func() time.Time) RegistryOption {
	return func(r *Registry) { r.now = now }
}

func NewRegistry(factory StoreFactory, opts ...RegistryOption) *Registry {
	r := &Registry{
		entries:      make(map[domain.Key]*registryEntry),
		factory:      factory,
		idleTTL:      2 * time.Hour,
		cleanupEvery: 10 * time.Minute,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) CleanupEvery() time.Duration { return r.cleanupEvery }

// Get devolve o store do cliente, criando-o na primeira vez.
func (r *Registry) Get(ctx context.Context, key domain.Key) *FormStore {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	if ent, ok := r.entries[key]; ok {
		ent.lastSeen = now
		return ent.store
	}

	s := r.factory(ctx, key)
	r.entries[key] = &registryEntry{store: s, lastSeen: now}
	return s
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Cleanup remove stores inativos há mais de idleTTL. Stores com envio em
// andamento são mantidos.
func (r *Registry) Cleanup() {
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	defer r.mu.Unlock()

	for k, ent := range r.entries {
		if ent.lastSeen.Before(cutoff) && !ent.store.Busy() {
			delete(r.entries, k)
		}
	}
}

// StartJanitor inicia uma goroutine que limpa stores inativos periodicamente.
// Pare cancelando o contexto.
func (r *Registry) StartJanitor(ctx DoneContext) {
	if r.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(r.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				r.Cleanup()
			}
		}
	}()
}

// DoneContext é o mínimo necessário para aceitar context.Context no janitor.
type DoneContext interface {
	Done() <-chan struct{}
}
