package application

import (
	"context"
	"testing"
	"time"

	"contact-gateway/contact/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type blockingPool struct{ acquired int }

func (p *blockingPool) Acquire(ctx context.Context) (func(), bool) {
	p.acquired++
	<-ctx.Done()
	return nil, false
}
func (p *blockingPool) InUse() int { return 1 }
func (p *blockingPool) Cap() int   { return 1 }

type openPool struct{ acquired, released int }

func (p *openPool) Acquire(context.Context) (func(), bool) {
	p.acquired++
	return func() { p.released++ }, true
}
func (p *openPool) InUse() int { return p.acquired - p.released }
func (p *openPool) Cap() int   { return 100 }

func TestAcquireSlot_NilPoolAlwaysAllows(t *testing.T) {
	release, ok := AcquireSlot(context.Background(), nil, 0)
	require.True(t, ok)
	release()
}

func TestAcquireSlot_GivesUpAfterWait(t *testing.T) {
	pool := &blockingPool{}
	start := time.Now()
	_, ok := AcquireSlot(context.Background(), pool, 10*time.Millisecond)
	assert.False(t, ok)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 1, pool.acquired)
}

func TestLimitTransport_NilPoolReturnsNext(t *testing.T) {
	tr := &fakeTransport{}
	assert.Same(t, domain.Transport(tr), LimitTransport(tr, nil, 0))
}

func TestLimitedTransport_SendsInsideSlot(t *testing.T) {
	pool := &openPool{}
	tr := &fakeTransport{}
	lt := LimitTransport(tr, pool, time.Second)

	_, err := lt.Send(context.Background(), domain.FormDraft{Name: "Jo"})
	require.NoError(t, err)
	assert.Equal(t, 1, pool.acquired)
	assert.Equal(t, 1, pool.released)
	assert.Equal(t, "fake", lt.(*LimitedTransport).Name())
}

func TestLimitedTransport_BusyWhenNoSlot(t *testing.T) {
	tr := &fakeTransport{}
	lt := LimitTransport(tr, &blockingPool{}, 10*time.Millisecond)

	_, err := lt.Send(context.Background(), domain.FormDraft{})
	assert.ErrorIs(t, err, domain.ErrTransportBusy)
	assert.Empty(t, tr.sent)
}
