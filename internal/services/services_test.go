package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/akagifreeez/cookie-relay/internal/events"
	"github.com/akagifreeez/cookie-relay/internal/repository"
	"github.com/akagifreeez/cookie-relay/pkg/kv"
)

// stepClock returns a clock that advances one second per call.
func stepClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

type published struct {
	topic string
	event any
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (r *recordingPublisher) Publish(_ context.Context, topic string, event any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, published{topic: topic, event: event})
	return nil
}

func (r *recordingPublisher) Close() error { return nil }

func (r *recordingPublisher) topics() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.topic
	}
	return out
}

func (r *recordingPublisher) count(topic string) int {
	n := 0
	for _, t := range r.topics() {
		if t == topic {
			n++
		}
	}
	return n
}

type fixture struct {
	store *kv.MemoryStore
	pub   *recordingPublisher
	svc   *Services
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	store := kv.NewMemoryStore()
	pub := &recordingPublisher{}
	opts.Publisher = pub
	opts.RepositoryOptions = append([]repository.Option{repository.WithClock(stepClock())}, opts.RepositoryOptions...)
	return &fixture{store: store, pub: pub, svc: New(store, opts)}
}

func TestNewAppliesDefaults(t *testing.T) {
	svc := New(kv.NewMemoryStore(), Options{})
	assert.Equal(t, 1, svc.Cookies.MaxFailCount())
	assert.Equal(t, DefaultMaxLogEntries, svc.Logs.MaxEntries())
}

func TestPublishIgnoresPublisherFailures(t *testing.T) {
	assert.NotPanics(t, func() {
		publish(context.Background(), failingPublisher{}, events.TopicCookieReset, nil)
	})
}

type failingPublisher struct{ *events.NoopPublisher }

func (failingPublisher) Publish(context.Context, string, any) error {
	return assert.AnError
}
