package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/livepoll/livepoll/internal/core/ports"
)

// ChangeFeedChannel is the NOTIFY channel the row-level triggers publish to
// (see the change_feed migration).
const ChangeFeedChannel = "livepoll_changes"

const (
	listenerMinReconnect = 2 * time.Second
	listenerMaxReconnect = time.Minute
	listenerPingInterval = 90 * time.Second
)

// changeFeed adapts postgres LISTEN/NOTIFY to the ChangeFeed port.
// pq.Listener reconnects on its own; after a reconnect it emits a nil
// notification, which surfaces to consumers as a Resync event since
// anything published while disconnected is lost.
type changeFeed struct {
	listener *pq.Listener
	logger   *slog.Logger
}

func NewChangeFeed(connStr string, logger *slog.Logger) ports.ChangeFeed {
	listener := pq.NewListener(connStr, listenerMinReconnect, listenerMaxReconnect,
		func(event pq.ListenerEventType, err error) {
			if err != nil {
				logger.Error("change feed listener event", "event", int(event), "error", err)
			}
		})
	return &changeFeed{
		listener: listener,
		logger:   logger,
	}
}

func (f *changeFeed) Events(ctx context.Context) (<-chan ports.ChangeEvent, error) {
	if err := f.listener.Listen(ChangeFeedChannel); err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", ChangeFeedChannel, err)
	}

	out := make(chan ports.ChangeEvent)
	go f.pump(ctx, out)
	return out, nil
}

func (f *changeFeed) pump(ctx context.Context, out chan<- ports.ChangeEvent) {
	defer close(out)
	ping := time.NewTicker(listenerPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			if err := f.listener.Ping(); err != nil {
				f.logger.Error("change feed ping failed", "error", err)
			}
		case n, ok := <-f.listener.Notify:
			if !ok {
				return
			}

			var event ports.ChangeEvent
			if n == nil {
				event.Resync = true
			} else if err := json.Unmarshal([]byte(n.Extra), &event); err != nil {
				f.logger.Error("malformed change notification", "payload", n.Extra, "error", err)
				event = ports.ChangeEvent{Resync: true}
			}

			select {
			case out <- event:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (f *changeFeed) Close() error {
	return f.listener.Close()
}
