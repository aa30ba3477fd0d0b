// Package notify delivers committed mutations to the outbound channel. All
// implementations are fire-and-forget: the application layer already treats
// publish failures as non-fatal.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"taskledger/internal/platform/httpclient"
	"taskledger/internal/ports"
)

// Compile-time check that WebhookNotifier implements ports.Notifier.
var _ ports.Notifier = (*WebhookNotifier)(nil)

// WebhookNotifier POSTs one JSON event per committed mutation to the
// configured endpoint.
type WebhookNotifier struct {
	http *httpclient.Client
}

func NewWebhookNotifier(http *httpclient.Client) *WebhookNotifier {
	return &WebhookNotifier{http: http}
}

// eventDTO is the outbound wire format. Entity ids are flattened so
// consumers do not need the full entity schema to route events.
type eventDTO struct {
	Action    string    `json:"action"`
	ActorID   string    `json:"actor_id"`
	Occurred  time.Time `json:"occurred"`
	ProjectID string    `json:"project_id,omitempty"`
	TaskID    string    `json:"task_id,omitempty"`
}

func (n *WebhookNotifier) Publish(ctx context.Context, notification ports.Notification) error {
	dto := eventDTO{
		Action:   string(notification.Action),
		ActorID:  notification.Actor.UserID,
		Occurred: notification.Occurred,
	}
	if notification.Project != nil {
		dto.ProjectID = notification.Project.ID
	}
	if notification.Task != nil {
		dto.TaskID = notification.Task.ID
		dto.ProjectID = notification.Task.ProjectID
	}

	body, err := json.Marshal(dto)
	if err != nil {
		return fmt.Errorf("encoding notification: %w", err)
	}

	url := n.http.BaseURL() + "/events"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.http.Do(ctx, req)
	if resp != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	if err != nil {
		return fmt.Errorf("delivering notification: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("notification endpoint returned HTTP %d", resp.StatusCode)
	}
	return nil
}
