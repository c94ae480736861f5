package application

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"contact-gateway/contact/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storeFixture struct {
	kv        *fakeKV
	transport *fakeTransport
	stats     *fakeStats
	store     *FormStore
}

func newStoreFixture(t *testing.T) *storeFixture {
	t.Helper()
	f := &storeFixture{kv: newFakeKV(), transport: &fakeTransport{}, stats: &fakeStats{}}
	f.store = f.build()
	return f
}

func (f *storeFixture) build() *FormStore {
	gate := NewThrottleGate(f.kv, WithThrottleClock(fixedClock(gateNow)))
	return NewFormStore(context.Background(), FormStoreConfig{
		Storage:   f.kv,
		Gate:      gate,
		Transport: f.transport,
		Stats:     f.stats,
		Key:       "client-1",
		Now:       fixedClock(gateNow),
		NewID:     func() string { return "sub-1" },
	})
}

func validDraft() domain.FormDraft {
	return domain.FormDraft{Name: "Jo", Email: "jo@x.com", Phone: "", Message: "hello there!"}
}

func TestFormStore_UpdateFieldMergesOneKey(t *testing.T) {
	ctx := context.Background()
	for _, field := range domain.Fields {
		f := newStoreFixture(t)
		for _, other := range domain.Fields {
			require.NoError(t, f.store.UpdateField(ctx, other, "old-"+string(other)))
		}

		require.NoError(t, f.store.UpdateField(ctx, field, "new"))

		d := f.store.Draft()
		for _, other := range domain.Fields {
			want := "old-" + string(other)
			if other == field {
				want = "new"
			}
			assert.Equal(t, want, d.Get(other))
		}
		assert.Equal(t, domain.StatusIdle, f.store.Status().Kind)
	}
}

func TestFormStore_UpdateFieldRejectsUnknownField(t *testing.T) {
	f := newStoreFixture(t)
	err := f.store.UpdateField(context.Background(), domain.Field("subject"), "x")
	assert.ErrorIs(t, err, domain.ErrUnknownField)
	_, ok := f.kv.raw(domain.DraftKey)
	assert.False(t, ok)
}

func TestFormStore_UpdateFieldPersistsDraftCache(t *testing.T) {
	ctx := context.Background()
	f := newStoreFixture(t)
	require.NoError(t, f.store.UpdateField(ctx, domain.FieldName, "Jo"))
	require.NoError(t, f.store.UpdateField(ctx, domain.FieldMessage, "línea con acento"))

	raw, ok := f.kv.raw(domain.DraftKey)
	require.True(t, ok)
	var cached domain.FormDraft
	require.NoError(t, json.Unmarshal([]byte(raw), &cached))
	assert.Equal(t, f.store.Draft(), cached)

	// um novo store (reinício do processo) parte do cache
	again := f.build()
	assert.Equal(t, f.store.Draft(), again.Draft())
}

func TestFormStore_PartialCacheDefaultsMissingKeys(t *testing.T) {
	f := newStoreFixture(t)
	f.kv.data[domain.DraftKey] = `{"name":"Jo"}`
	s := f.build()
	assert.Equal(t, domain.FormDraft{Name: "Jo"}, s.Draft())
}

func TestFormStore_CorruptCacheStartsEmpty(t *testing.T) {
	f := newStoreFixture(t)
	f.kv.data[domain.DraftKey] = `["nope"`
	s := f.build()
	assert.Equal(t, domain.FormDraft{}, s.Draft())
	assert.Equal(t, domain.Idle(), s.Status())
}

func TestFormStore_ResetFromAnyState(t *testing.T) {
	ctx := context.Background()
	f := newStoreFixture(t)
	f.transport.err = errors.New("network down")

	require.NoError(t, f.store.UpdateField(ctx, domain.FieldName, "Jo"))
	st, _ := f.store.Submit(ctx, validDraft())
	require.Equal(t, domain.StatusFailed, st.Kind)
	seedLog(t, f.kv, gateNow)

	f.store.Reset(ctx)

	assert.Equal(t, domain.FormDraft{}, f.store.Draft())
	assert.Equal(t, domain.Idle(), f.store.Status())
	_, ok := f.kv.raw(domain.DraftKey)
	assert.False(t, ok)
	// o log de envios não é tocado
	assert.Len(t, readLog(t, f.kv), 1)
}

func TestFormStore_SubmitSucceeds(t *testing.T) {
	ctx := context.Background()
	f := newStoreFixture(t)
	d := validDraft()
	for _, field := range domain.Fields {
		require.NoError(t, f.store.UpdateField(ctx, field, d.Get(field)))
	}

	st, err := f.store.Submit(ctx, d)
	require.NoError(t, err)

	assert.Equal(t, domain.Succeeded(), st)
	assert.Equal(t, domain.FormDraft{}, f.store.Draft())
	assert.Len(t, readLog(t, f.kv), 1)
	_, ok := f.kv.raw(domain.DraftKey)
	assert.False(t, ok)

	hist := f.store.History()
	require.Len(t, hist, 1)
	assert.Equal(t, "sub-1", hist[0].ID)
	assert.Equal(t, d, hist[0].Payload)
	assert.Equal(t, "ack-1", hist[0].Ack.ID)
	assert.Equal(t, []domain.FormDraft{d}, f.transport.sent)

	require.Len(t, f.stats.events, 1)
	assert.Equal(t, domain.OutcomeAccepted, f.stats.events[0].Outcome)
	assert.Equal(t, domain.Key("client-1"), f.stats.events[0].Key)
}

func TestFormStore_SubmitThrottled(t *testing.T) {
	ctx := context.Background()
	f := newStoreFixture(t)
	seedLog(t, f.kv,
		gateNow.Add(-1*time.Minute),
		gateNow.Add(-2*time.Minute),
		gateNow.Add(-3*time.Minute))
	require.NoError(t, f.store.UpdateField(ctx, domain.FieldName, "Jo"))

	st, err := f.store.Submit(ctx, validDraft())

	var terr domain.ThrottleError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, 27*time.Minute, terr.Wait)
	assert.Equal(t, domain.StatusFailed, st.Kind)
	assert.Contains(t, st.Reason, "wait")
	assert.Contains(t, st.Reason, "27 minutes")
	assert.Empty(t, f.transport.sent)
	assert.Len(t, readLog(t, f.kv), 3)
	assert.Equal(t, "Jo", f.store.Draft().Name)
	assert.Equal(t, domain.OutcomeThrottled, f.stats.events[0].Outcome)
}

func TestFormStore_SubmitTransportFailureKeepsDraft(t *testing.T) {
	ctx := context.Background()
	f := newStoreFixture(t)
	f.transport.err = errors.New("smtp: connection refused")
	require.NoError(t, f.store.UpdateField(ctx, domain.FieldMessage, "keep me around"))

	st, err := f.store.Submit(ctx, validDraft())

	var terr domain.TransportError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, "fake", terr.Transport)
	assert.Equal(t, domain.Failed("smtp: connection refused"), st)
	assert.Equal(t, "keep me around", f.store.Draft().Message)
	_, ok := f.kv.raw(domain.DraftKey)
	assert.True(t, ok)
	assert.Empty(t, readLog(t, f.kv))
	assert.Empty(t, f.store.History())
}

func TestFormStore_SubmitRejectsWhileInFlight(t *testing.T) {
	ctx := context.Background()
	f := newStoreFixture(t)
	f.transport.block = make(chan struct{})
	f.transport.started = make(chan struct{})

	first := f.store.SubmitAsync(ctx, validDraft())
	select {
	case <-f.transport.started:
	case <-time.After(time.Second):
		t.Fatalf("timeout waiting first submission to reach transport")
	}

	assert.True(t, f.store.Busy())
	st, err := f.store.Submit(ctx, validDraft())
	assert.ErrorIs(t, err, domain.ErrSubmissionInProgress)
	assert.Equal(t, domain.StatusLoading, st.Kind)

	close(f.transport.block)
	select {
	case res := <-first:
		require.NoError(t, res.Err)
		assert.Equal(t, domain.Succeeded(), res.Status)
	case <-time.After(time.Second):
		t.Fatalf("timeout waiting first submission")
	}
	assert.False(t, f.store.Busy())
	assert.Len(t, readLog(t, f.kv), 1)
}

func TestFormStore_SubmitIgnoresCallerCancellation(t *testing.T) {
	f := newStoreFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	st, err := f.store.Submit(ctx, validDraft())
	require.NoError(t, err)
	assert.Equal(t, domain.Succeeded(), st)
}

func TestFormStore_FourthSubmissionInWindowIsThrottled(t *testing.T) {
	ctx := context.Background()
	f := newStoreFixture(t)

	for i := 0; i < 3; i++ {
		st, err := f.store.Submit(ctx, validDraft())
		require.NoError(t, err)
		require.Equal(t, domain.StatusSucceeded, st.Kind)
	}
	st, err := f.store.Submit(ctx, validDraft())
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(st.Reason, "Please wait 30 minutes"))
	assert.Len(t, f.store.History(), 3)
	assert.Equal(t, 3, f.store.Snapshot().Submissions)
}
