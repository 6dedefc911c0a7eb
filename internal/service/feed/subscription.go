package feed

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/calfai/herd/internal/domain/faults"
	"github.com/calfai/herd/internal/domain/models"
)

const rebuildTimeout = 10 * time.Second

// Store is the slice of the document store the subscription depends on.
type Store interface {
	ListRawRecords(ctx context.Context, ownerID string) ([]map[string]any, error)
	WatchRecords(ctx context.Context, ownerID string) (<-chan struct{}, error)
}

// Subscription maintains a live snapshot of one owner's record collection.
// Every change notification triggers a wholesale rebuild; there is no
// incremental patching. Consumers receive each Snapshot as an immutable
// value on Snapshots().
type Subscription struct {
	store   Store
	logger  *zap.Logger
	ownerID string

	snapshots chan models.Snapshot
	cancel    context.CancelFunc
	done      chan struct{}
	stopOnce  sync.Once
}

// Subscribe starts a live subscription for the given owner. It fails with an
// Unauthenticated fault when no owner id is available. An initial snapshot is
// emitted before any change notification arrives.
func Subscribe(ctx context.Context, store Store, ownerID string, logger *zap.Logger) (*Subscription, error) {
	if ownerID == "" {
		return nil, faults.New(faults.KindUnauthenticated, "Sign in to view your records.")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	runCtx, cancel := context.WithCancel(ctx)

	notifications, err := store.WatchRecords(runCtx, ownerID)
	if err != nil {
		cancel()
		return nil, faults.Wrap(faults.KindUpstream, "Live updates are unavailable right now.", err)
	}

	s := &Subscription{
		store:     store,
		logger:    logger,
		ownerID:   ownerID,
		snapshots: make(chan models.Snapshot, 1),
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	go s.run(runCtx, notifications)

	return s, nil
}

// Snapshots returns the emission channel. It closes after Stop; nothing is
// ever delivered past that point.
func (s *Subscription) Snapshots() <-chan models.Snapshot {
	return s.snapshots
}

// Stop tears the subscription down. Idempotent, and safe to call before the
// first notification has arrived.
func (s *Subscription) Stop() {
	s.stopOnce.Do(func() {
		s.cancel()
		<-s.done
	})
}

func (s *Subscription) run(ctx context.Context, notifications <-chan struct{}) {
	defer close(s.snapshots)
	defer close(s.done)

	s.emit(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-notifications:
			if !ok {
				return
			}
			s.emit(ctx)
		}
	}
}

// emit rebuilds the snapshot and delivers it. A pending undelivered snapshot
// is replaced by the newer one: last write wins for the snapshot as a whole.
func (s *Subscription) emit(ctx context.Context) {
	listCtx, cancel := context.WithTimeout(ctx, rebuildTimeout)
	defer cancel()

	docs, err := s.store.ListRawRecords(listCtx, s.ownerID)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn("snapshot rebuild failed", zap.String("owner_id", s.ownerID), zap.Error(err))
		}
		return
	}

	snapshot := NormalizeDocs(docs, time.Now())

	for {
		select {
		case <-ctx.Done():
			return
		case s.snapshots <- snapshot:
			return
		default:
		}

		select {
		case <-s.snapshots:
		default:
		}
	}
}
