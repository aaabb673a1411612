package ports

import "context"

type PollNotification struct {
	To       []string `json:"to"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// Notifier dispatches a new-poll notification. Delivery is best-effort:
// callers log failures and move on.
type Notifier interface {
	NotifyPollCreated(ctx context.Context, n PollNotification) error
}
