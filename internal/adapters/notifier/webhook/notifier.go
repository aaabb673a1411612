package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/livepoll/livepoll/internal/core/ports"
)

const defaultTimeout = 10 * time.Second

// Notifier posts new-poll notifications to an external dispatch function
// (POST {to, question, options}). Any non-2xx response is an error; the
// caller decides whether to swallow it.
type Notifier struct {
	url    string
	token  string
	client *http.Client
}

func NewNotifier(url, token string) *Notifier {
	return &Notifier{
		url:    url,
		token:  token,
		client: &http.Client{Timeout: defaultTimeout},
	}
}

func (n *Notifier) NotifyPollCreated(ctx context.Context, notification ports.PollNotification) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if n.token != "" {
		req.Header.Set("Authorization", "Bearer "+n.token)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("notification request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("notification dispatch returned status %d", resp.StatusCode)
	}
	return nil
}
