package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accountly/backend/domain"
	"github.com/accountly/backend/internal/infrastructure/buffer"
	"github.com/accountly/backend/pkg/clock"
)

type fakePublisher struct {
	mu        sync.Mutex
	failing   bool
	published []domain.Event
}

func (f *fakePublisher) Publish(ctx context.Context, event domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errors.New("stream unavailable")
	}
	f.published = append(f.published, event)
	return nil
}

func (f *fakePublisher) setFailing(failing bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing = failing
}

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.published)
}

func newTestStore(t *testing.T) *buffer.Store {
	t.Helper()
	store, err := buffer.Open(filepath.Join(t.TempDir(), "events.db"), "events")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestEventDispatcher_ImmediatePublish(t *testing.T) {
	publisher := &fakePublisher{}
	store := newTestStore(t)

	d := NewEventDispatcher(publisher, store, nil, clock.System{}, nil, DispatcherConfig{})

	err := d.Notify(context.Background(), domain.EventUserCreated, map[string]any{"id": 1})
	require.NoError(t, err)

	assert.Equal(t, 1, publisher.count())
	assert.Equal(t, 0, d.Size())

	publisher.mu.Lock()
	event := publisher.published[0]
	publisher.mu.Unlock()
	assert.Equal(t, domain.EventUserCreated, event.Type)
	assert.Equal(t, "user-management-service", event.Source)
	assert.Equal(t, domain.EventSchemaVersion, event.Version)
	assert.NotEmpty(t, event.ID)
}

func TestEventDispatcher_BuffersOnFailureAndDrains(t *testing.T) {
	publisher := &fakePublisher{failing: true}
	store := newTestStore(t)

	d := NewEventDispatcher(publisher, store, nil, clock.System{}, nil, DispatcherConfig{})

	// Publish fails, event lands in the buffer, caller still sees success.
	err := d.Notify(context.Background(), domain.EventUserUpdated, map[string]any{"id": 2})
	require.NoError(t, err)
	assert.Equal(t, 0, publisher.count())
	assert.Equal(t, 1, d.Size())

	// Stream recovers; the next drain flushes the buffer.
	publisher.setFailing(false)
	require.NoError(t, d.Drain(context.Background()))
	assert.Equal(t, 1, publisher.count())
	assert.Equal(t, 0, d.Size())
}

func TestEventDispatcher_DropsAfterMaxRetries(t *testing.T) {
	publisher := &fakePublisher{failing: true}
	store := newTestStore(t)

	d := NewEventDispatcher(publisher, store, nil, clock.System{}, nil, DispatcherConfig{MaxRetries: 2})

	require.NoError(t, d.Notify(context.Background(), domain.EventUserDeleted, map[string]any{"id": 3}))
	require.Equal(t, 1, d.Size())

	require.NoError(t, d.Drain(context.Background()))
	assert.Equal(t, 1, d.Size(), "first failure requeues")

	require.NoError(t, d.Drain(context.Background()))
	assert.Equal(t, 0, d.Size(), "second failure drops")
}

type offlineMonitor struct{}

func (offlineMonitor) StreamOnline() bool { return false }

func TestEventDispatcher_OfflineSkipsPublish(t *testing.T) {
	publisher := &fakePublisher{}
	store := newTestStore(t)

	d := NewEventDispatcher(publisher, store, offlineMonitor{}, clock.System{}, nil, DispatcherConfig{})

	require.NoError(t, d.Notify(context.Background(), domain.EventUserCreated, nil))
	assert.Equal(t, 0, publisher.count())
	assert.Equal(t, 1, d.Size())

	require.NoError(t, d.Drain(context.Background()))
	assert.Equal(t, 0, publisher.count(), "drain skipped while offline")
}

func TestBufferStore_OrderAndCleanup(t *testing.T) {
	store := newTestStore(t)

	first := buffer.Item{EventType: "a", Envelope: []byte(`{}`), Timestamp: time.Now().Add(-time.Hour)}
	second := buffer.Item{EventType: "b", Envelope: []byte(`{}`), Timestamp: time.Now()}
	require.NoError(t, store.Enqueue(second))
	require.NoError(t, store.Enqueue(first))

	items, err := store.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].EventType, "older event drains first")

	require.NoError(t, store.Cleanup(time.Now().Add(-30*time.Minute)))
	size, err := store.Size()
	require.NoError(t, err)
	assert.Equal(t, 1, size)
}
