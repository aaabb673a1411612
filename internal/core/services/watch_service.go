package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/livepoll/livepoll/internal/core/ports"
)

const leaderboardSize = 10

// ErrFeedClosed reports a change feed that shut down while propagation was
// still wanted. Without it, clients would keep their streams open against a
// hub that never refreshes again.
var ErrFeedClosed = errors.New("change feed closed")

// WatchService is the change propagation listener: it consumes the storage
// change feed and keeps every subscriber's view consistent without polling.
// Invalidation is coarse: any event triggers a full refetch of the poll
// collection and leaderboard, so subscribers never merge partial payloads
// into local state.
type WatchService struct {
	feed      ports.ChangeFeed
	pollRepo  ports.PollRepository
	scoreRepo ports.ScoreRepository
	logger    *slog.Logger

	mu      sync.Mutex
	subs    map[chan ports.Snapshot]struct{}
	current ports.Snapshot
	primed  bool
}

func NewWatchService(feed ports.ChangeFeed, pollRepo ports.PollRepository, scoreRepo ports.ScoreRepository, logger *slog.Logger) *WatchService {
	return &WatchService{
		feed:      feed,
		pollRepo:  pollRepo,
		scoreRepo: scoreRepo,
		logger:    logger,
		subs:      make(map[chan ports.Snapshot]struct{}),
	}
}

// Subscribe registers an observer. The latest known snapshot, if any, is
// delivered immediately. The returned subscription must be closed when the
// observer's scope ends.
func (s *WatchService) Subscribe() *ports.Subscription {
	ch := make(chan ports.Snapshot, 1)

	s.mu.Lock()
	s.subs[ch] = struct{}{}
	if s.primed {
		ch <- s.current
	}
	s.mu.Unlock()

	var once sync.Once
	return ports.NewSubscription(ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, ch)
			s.mu.Unlock()
			close(ch)
		})
	})
}

// Run consumes the change feed until ctx is cancelled. It refreshes once on
// start so early subscribers get a snapshot before the first mutation.
func (s *WatchService) Run(ctx context.Context) error {
	events, err := s.feed.Events(ctx)
	if err != nil {
		return err
	}

	s.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				if err := ctx.Err(); err != nil {
					return err
				}
				return ErrFeedClosed
			}
			if ev.Resync {
				s.logger.Warn("change feed reconnected, forcing refresh")
			} else {
				s.logger.Debug("change received", "table", ev.Table, "action", ev.Action)
			}
			s.refresh(ctx)
		}
	}
}

func (s *WatchService) refresh(ctx context.Context) {
	polls, err := s.pollRepo.GetAll(ctx)
	if err != nil {
		s.logger.Error("snapshot refresh: fetching polls failed", "error", err)
		return
	}
	leaderboard, err := s.scoreRepo.Top(ctx, leaderboardSize)
	if err != nil {
		s.logger.Error("snapshot refresh: fetching leaderboard failed", "error", err)
		return
	}

	snapshot := ports.Snapshot{Polls: polls, Leaderboard: leaderboard}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = snapshot
	s.primed = true
	for ch := range s.subs {
		// Replace a stale undelivered snapshot rather than blocking on a
		// slow subscriber: only the latest state matters.
		select {
		case ch <- snapshot:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snapshot
		}
	}
}
