package notify

import (
	"context"
	"log/slog"

	"taskledger/internal/ports"
)

// Compile-time check that LogNotifier implements ports.Notifier.
var _ ports.Notifier = (*LogNotifier)(nil)

// LogNotifier writes mutations to the structured log. Used when the webhook
// channel is disabled, typically in the local profile.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Publish(ctx context.Context, notification ports.Notification) error {
	attrs := []any{
		slog.String("action", string(notification.Action)),
		slog.String("actor", notification.Actor.UserID),
		slog.Time("occurred", notification.Occurred),
	}
	if notification.Project != nil {
		attrs = append(attrs, slog.String("project_id", notification.Project.ID))
	}
	if notification.Task != nil {
		attrs = append(attrs, slog.String("task_id", notification.Task.ID))
	}
	n.logger.InfoContext(ctx, "entity mutated", attrs...)
	return nil
}
