package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Dispatcher delivers notification payloads to the configured webhook
// endpoint (an email bridge or similar). Delivery is synchronous; a failed
// delivery surfaces to the queue worker, which retries the whole task.
type Dispatcher struct {
	webhookURL string
	httpClient *http.Client
}

type Delivery struct {
	Event       string      `json:"event"`
	ThreadID    string      `json:"thread_id"`
	ThreadTitle string      `json:"thread_title"`
	Recipients  []Recipient `json:"recipients"`
}

func NewDispatcher(webhookURL string) *Dispatcher {
	return &Dispatcher{
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (d *Dispatcher) Deliver(ctx context.Context, del Delivery) error {
	if d.webhookURL == "" || len(del.Recipients) == 0 {
		return nil
	}

	payload, err := json.Marshal(del)
	if err != nil {
		return fmt.Errorf("marshal delivery: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "POST", d.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create delivery request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Notify-Event", del.Event)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("deliver notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("notification endpoint returned %d", resp.StatusCode)
	}
	return nil
}
