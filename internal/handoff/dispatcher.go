package handoff

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Dispatcher persists handoff notifications and delivers them to an
// optional webhook consumed by human-routing tooling.
type Dispatcher struct {
	store      *Store
	client     *http.Client
	webhookURL string
}

// NewDispatcher creates a Dispatcher. webhookURL may be empty, in which
// case notifications are only persisted.
func NewDispatcher(store *Store, webhookURL string) *Dispatcher {
	return &Dispatcher{
		store:      store,
		webhookURL: webhookURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Dispatch persists the notification and attempts webhook delivery.
// Delivery failure is returned for logging but leaves the notification
// stored for later pickup.
func (d *Dispatcher) Dispatch(ctx context.Context, n Notification) error {
	id, err := d.store.Create(ctx, n)
	if err != nil {
		return fmt.Errorf("creating handoff notification: %w", err)
	}
	n.ID = id

	if d.webhookURL == "" {
		return nil
	}

	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshalling handoff notification: %w", err)
	}
	if err := d.sendWebhook(ctx, payload); err != nil {
		return fmt.Errorf("delivering handoff notification: %w", err)
	}

	return d.store.MarkDelivered(ctx, id)
}

// sendWebhook POSTs the payload to the configured URL.
func (d *Dispatcher) sendWebhook(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
