package infra

import (
	"context"
	"testing"
	"time"

	"contact-gateway/contact/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statsEvent(key, outcome string) domain.StatsEvent {
	return domain.StatsEvent{Key: domain.Key(key), Outcome: domain.Outcome(outcome), At: time.Now()}
}

func TestMemoryStatsStore_CountsByOutcome(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStatsStore(WithTrackKeys(true))

	require.NoError(t, s.Record(ctx, statsEvent("a", "accepted")))
	require.NoError(t, s.Record(ctx, statsEvent("a", "throttled")))
	require.NoError(t, s.Record(ctx, statsEvent("b", "failed")))
	require.NoError(t, s.Record(ctx, statsEvent("b", "accepted")))

	assert.Equal(t, Counters{Accepted: 2, Throttled: 1, Failed: 1}, s.Total())
	assert.Equal(t, Counters{Accepted: 1, Throttled: 1}, s.ByKey()["a"])

	c, err := s.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, s.Total(), c)
}

func TestMemoryStatsStore_KeysNotTrackedByDefault(t *testing.T) {
	s := NewMemoryStatsStore()
	require.NoError(t, s.Record(context.Background(), statsEvent("a", "accepted")))
	assert.Empty(t, s.ByKey())
}
