package infra

import (
	"sync"
	"time"

	"contact-gateway/contact/domain"

	"golang.org/x/time/rate"
)

// RequestBuckets guarda um token bucket (x/time/rate) por cliente e por
// ação do formulário. Ações sem quota própria usam a quota padrão.
type RequestBuckets struct {
	mu           sync.Mutex
	buckets      map[bucketID]*bucket
	quotas       map[domain.Action]domain.Quota
	fallback     domain.Quota
	idleTTL      time.Duration
	cleanupEvery time.Duration
	now          func() time.Time
}

type bucketID struct {
	key    domain.Key
	action domain.Action
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

var _ domain.RequestQuota = (*RequestBuckets)(nil)

type BucketOption func(*RequestBuckets)

// WithActionQuota define a quota de uma ação.
func WithActionQuota(a domain.Action, q domain.Quota) BucketOption {
	return func(b *RequestBuckets) { b.quotas[a] = q }
}

func WithBucketIdleTTL(d time.Duration) BucketOption {
	return func(b *RequestBuckets) { b.idleTTL = d }
}

func WithBucketCleanupEvery(d time.Duration) BucketOption {
	return func(b *RequestBuckets) { b.cleanupEvery = d }
}

func WithBucketClock(now func() time.Time) BucketOption {
	return func(b *RequestBuckets) { b.now = now }
}

func NewRequestBuckets(fallback domain.Quota, opts ...BucketOption) *RequestBuckets {
	b := &RequestBuckets{
		buckets:      make(map[bucketID]*bucket),
		quotas:       make(map[domain.Action]domain.Quota),
		fallback:     fallback,
		idleTTL:      15 * time.Minute,
		cleanupEvery: 2 * time.Minute,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *RequestBuckets) Quota(a domain.Action) domain.Quota {
	if q, ok := b.quotas[a]; ok {
		return q
	}
	return b.fallback
}

// Take consome um token. Quando negado, a reserva é devolvida: uma
// requisição recusada não empurra a próxima liberação para mais longe.
func (b *RequestBuckets) Take(key domain.Key, action domain.Action, now time.Time) domain.Decision {
	lim := b.limiter(bucketID{key: key, action: action}, now)

	r := lim.ReserveN(now, 1)
	if !r.OK() {
		// burst 0: nunca há token
		return domain.Decision{Allowed: false, RetryAfter: time.Second}
	}
	if wait := r.DelayFrom(now); wait > 0 {
		r.CancelAt(now)
		return domain.Decision{Allowed: false, RetryAfter: wait}
	}
	return domain.Decision{Allowed: true}
}

func (b *RequestBuckets) limiter(id bucketID, now time.Time) *rate.Limiter {
	b.mu.Lock()
	defer b.mu.Unlock()

	if bk, ok := b.buckets[id]; ok {
		bk.lastSeen = now
		return bk.lim
	}

	q := b.Quota(id.action)
	lim := rate.NewLimiter(rate.Limit(q.RPS), q.Burst)
	b.buckets[id] = &bucket{lim: lim, lastSeen: now}
	return lim
}

// Len conta os buckets vivos (um por cliente e ação usada).
func (b *RequestBuckets) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buckets)
}

// Cleanup remove buckets sem uso há mais de idleTTL. Um bucket removido
// volta cheio, o que só acontece depois de o cliente ficar ocioso.
func (b *RequestBuckets) Cleanup() {
	cutoff := b.now().Add(-b.idleTTL)

	b.mu.Lock()
	defer b.mu.Unlock()

	for id, bk := range b.buckets {
		if bk.lastSeen.Before(cutoff) {
			delete(b.buckets, id)
		}
	}
}

// StartJanitor limpa buckets ociosos até o contexto encerrar.
func (b *RequestBuckets) StartJanitor(ctx interface{ Done() <-chan struct{} }) {
	if b.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(b.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				b.Cleanup()
			}
		}
	}()
}
