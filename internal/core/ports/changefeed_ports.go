package ports

import "context"

// ChangeEvent is one row-level mutation reported by the storage change feed.
// A Resync event carries no table or action: the feed reconnected and
// notifications may have been lost, so consumers must refetch.
type ChangeEvent struct {
	Table  string `json:"table"`
	Action string `json:"action"`
	Resync bool   `json:"-"`
}

// ChangeFeed is a push-based stream of storage mutations. Events starts the
// stream; the returned channel is closed when ctx is cancelled or the feed
// is closed.
type ChangeFeed interface {
	Events(ctx context.Context) (<-chan ChangeEvent, error)
	Close() error
}
