package ports

import "github.com/livepoll/livepoll/internal/core/domain"

// Snapshot is the full refreshed state pushed to subscribers after any
// storage change: the whole poll collection plus the leaderboard.
// Subscribers re-derive percentages and has-voted state from it.
type Snapshot struct {
	Polls       []*domain.Poll  `json:"polls"`
	Leaderboard []*domain.Score `json:"leaderboard"`
}

// Subscription is one observer's handle on the watch stream. C delivers the
// latest snapshot; stale snapshots are replaced, never queued. Close must be
// called when the observer's scope ends.
type Subscription struct {
	C     <-chan Snapshot
	close func()
}

// NewSubscription wires a subscription around its delivery channel and
// teardown hook. Used by watcher implementations.
func NewSubscription(c <-chan Snapshot, close func()) *Subscription {
	return &Subscription{C: c, close: close}
}

func (s *Subscription) Close() {
	s.close()
}

// Watcher fans refreshed state out to registered observers.
type Watcher interface {
	Subscribe() *Subscription
}
