package feed

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calfai/herd/internal/domain/faults"
)

type fakeStore struct {
	mu            sync.Mutex
	docs          []map[string]any
	notifications chan struct{}
	watchErr      error
}

func newFakeStore(docs ...map[string]any) *fakeStore {
	return &fakeStore{docs: docs, notifications: make(chan struct{})}
}

func (f *fakeStore) ListRawRecords(ctx context.Context, ownerID string) ([]map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]map[string]any, len(f.docs))
	copy(out, f.docs)
	return out, nil
}

func (f *fakeStore) WatchRecords(ctx context.Context, ownerID string) (<-chan struct{}, error) {
	if f.watchErr != nil {
		return nil, f.watchErr
	}
	return f.notifications, nil
}

func (f *fakeStore) setDocs(docs ...map[string]any) {
	f.mu.Lock()
	f.docs = docs
	f.mu.Unlock()
}

func waitSnapshot(t *testing.T, sub *Subscription) []map[string]any {
	t.Helper()
	select {
	case snapshot := <-sub.Snapshots():
		out := make([]map[string]any, 0, len(snapshot))
		for _, rec := range snapshot {
			out = append(out, map[string]any{"Animal_ID": rec.AnimalID})
		}
		return out
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot emitted")
		return nil
	}
}

func TestSubscribeRequiresOwner(t *testing.T) {
	_, err := Subscribe(context.Background(), newFakeStore(), "", nil)

	require.Error(t, err)
	assert.Equal(t, faults.KindUnauthenticated, faults.KindOf(err))
}

func TestSubscribeEmitsInitialSnapshot(t *testing.T) {
	store := newFakeStore(map[string]any{"Animal_ID": "COW-001", "createdAt": time.Now()})

	sub, err := Subscribe(context.Background(), store, "owner-1", nil)
	require.NoError(t, err)
	defer sub.Stop()

	got := waitSnapshot(t, sub)
	require.Len(t, got, 1)
	assert.Equal(t, "COW-001", got[0]["Animal_ID"])
}

func TestSubscribeRebuildsOnNotification(t *testing.T) {
	store := newFakeStore(map[string]any{"Animal_ID": "COW-001", "createdAt": time.Now()})

	sub, err := Subscribe(context.Background(), store, "owner-1", nil)
	require.NoError(t, err)
	defer sub.Stop()

	require.Len(t, waitSnapshot(t, sub), 1)

	store.setDocs(
		map[string]any{"Animal_ID": "COW-001", "createdAt": time.Now()},
		map[string]any{"Animal_ID": "COW-002", "createdAt": time.Now()},
	)
	store.notifications <- struct{}{}

	assert.Len(t, waitSnapshot(t, sub), 2)
}

func TestStopIsIdempotentAndClosesChannel(t *testing.T) {
	store := newFakeStore()

	sub, err := Subscribe(context.Background(), store, "owner-1", nil)
	require.NoError(t, err)

	sub.Stop()
	sub.Stop()

	for range sub.Snapshots() {
	}
}

func TestSubscribeWatchFailure(t *testing.T) {
	store := newFakeStore()
	store.watchErr = context.DeadlineExceeded

	_, err := Subscribe(context.Background(), store, "owner-1", nil)

	require.Error(t, err)
	assert.Equal(t, faults.KindUpstream, faults.KindOf(err))
}
