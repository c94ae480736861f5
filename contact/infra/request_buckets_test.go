package infra

import (
	"testing"
	"time"

	"contact-gateway/contact/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bucketNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func TestRequestBuckets_ActionsHaveSeparateBuckets(t *testing.T) {
	b := NewRequestBuckets(domain.Quota{RPS: 10, Burst: 5},
		WithActionQuota(domain.ActionEdit, domain.Quota{RPS: 1, Burst: 2}),
		WithActionQuota(domain.ActionSubmit, domain.Quota{RPS: 0.1, Burst: 1}),
	)

	require.True(t, b.Take("c1", domain.ActionEdit, bucketNow).Allowed)
	require.True(t, b.Take("c1", domain.ActionEdit, bucketNow).Allowed)
	assert.False(t, b.Take("c1", domain.ActionEdit, bucketNow).Allowed, "edit bucket exhausted")

	// digitar não gasta a cota de envio nem a de leitura
	assert.True(t, b.Take("c1", domain.ActionSubmit, bucketNow).Allowed)
	assert.True(t, b.Take("c1", domain.ActionRead, bucketNow).Allowed)
	// outro cliente tem seus próprios buckets
	assert.True(t, b.Take("c2", domain.ActionEdit, bucketNow).Allowed)

	assert.Equal(t, 4, b.Len())
}

func TestRequestBuckets_RetryAfterComesFromTheBucket(t *testing.T) {
	b := NewRequestBuckets(domain.Quota{RPS: 10, Burst: 5},
		WithActionQuota(domain.ActionSubmit, domain.Quota{RPS: 0.5, Burst: 1}),
	)

	require.True(t, b.Take("c1", domain.ActionSubmit, bucketNow).Allowed)

	dec := b.Take("c1", domain.ActionSubmit, bucketNow)
	assert.False(t, dec.Allowed)
	assert.Equal(t, 2*time.Second, dec.RetryAfter)

	// a recusa não consumiu token: no prazo informado o envio passa
	dec = b.Take("c1", domain.ActionSubmit, bucketNow.Add(time.Second))
	assert.False(t, dec.Allowed)
	assert.Equal(t, time.Second, dec.RetryAfter)
	assert.True(t, b.Take("c1", domain.ActionSubmit, bucketNow.Add(2*time.Second)).Allowed)
}

func TestRequestBuckets_ZeroBurstNeverAllows(t *testing.T) {
	b := NewRequestBuckets(domain.Quota{RPS: 1, Burst: 0})
	dec := b.Take("c1", domain.ActionRead, bucketNow)
	assert.False(t, dec.Allowed)
	assert.Equal(t, time.Second, dec.RetryAfter)
}

func TestRequestBuckets_QuotaFallsBack(t *testing.T) {
	b := NewRequestBuckets(domain.Quota{RPS: 3, Burst: 6},
		WithActionQuota(domain.ActionSubmit, domain.Quota{RPS: 0.2, Burst: 2}))
	assert.Equal(t, domain.Quota{RPS: 3, Burst: 6}, b.Quota(domain.ActionRead))
	assert.Equal(t, domain.Quota{RPS: 0.2, Burst: 2}, b.Quota(domain.ActionSubmit))
}

func TestRequestBuckets_CleanupRemovesIdleBuckets(t *testing.T) {
	now := bucketNow
	b := NewRequestBuckets(domain.Quota{RPS: 0.01, Burst: 1},
		WithBucketIdleTTL(time.Minute),
		WithBucketCleanupEvery(0),
		WithBucketClock(func() time.Time { return now }),
	)

	require.True(t, b.Take("idle", domain.ActionEdit, bucketNow).Allowed)
	require.True(t, b.Take("busy", domain.ActionEdit, bucketNow).Allowed)

	now = bucketNow.Add(2 * time.Minute)
	b.Take("busy", domain.ActionEdit, now)
	b.Cleanup()
	assert.Equal(t, 1, b.Len())

	// o bucket recriado volta cheio
	assert.True(t, b.Take("idle", domain.ActionEdit, now).Allowed)
}
