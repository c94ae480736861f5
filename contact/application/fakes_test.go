package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"contact-gateway/contact/domain"
)

type fakeKV struct {
	mu      sync.Mutex
	data    map[string]string
	getErr  error
	setErr  error
	sets    int
	deletes int
}

func newFakeKV() *fakeKV { return &fakeKV{data: map[string]string{}} }

func (f *fakeKV) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return "", false, f.getErr
	}
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *fakeKV) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.sets++
	f.data[key] = value
	return nil
}

func (f *fakeKV) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	delete(f.data, key)
	return nil
}

func (f *fakeKV) raw(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	return v, ok
}

type fakeTransport struct {
	mu      sync.Mutex
	err     error
	block   chan struct{}
	started chan struct{}
	sent    []domain.FormDraft
}

func (t *fakeTransport) Name() string { return "fake" }

func (t *fakeTransport) Send(ctx context.Context, payload domain.FormDraft) (domain.Ack, error) {
	if t.started != nil {
		close(t.started)
	}
	if t.block != nil {
		<-t.block
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return domain.Ack{}, t.err
	}
	t.sent = append(t.sent, payload)
	return domain.Ack{ID: "ack-1", Transport: "fake", ReceivedAt: time.Unix(0, 0)}, nil
}

type fakeStats struct {
	mu     sync.Mutex
	events []domain.StatsEvent
}

func (s *fakeStats) Record(_ context.Context, ev domain.StatsEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

var errBoom = errors.New("boom")

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
