package notify

import (
	"context"

	"go.opentelemetry.io/otel/metric"

	"taskledger/internal/platform/telemetry"
	"taskledger/internal/ports"
)

// Compile-time check that InstrumentedNotifier implements ports.Notifier.
var _ ports.Notifier = (*InstrumentedNotifier)(nil)

// InstrumentedNotifier counts committed mutations before delegating delivery.
// The application layer publishes exactly once per committed mutation, which
// makes this the recording point for the mutation counter without threading
// instruments through every service.
type InstrumentedNotifier struct {
	next    ports.Notifier
	metrics *telemetry.Metrics
}

// NewInstrumented wraps a notifier with mutation metrics. A nil metrics
// bundle disables recording, matching the disabled-telemetry profile.
func NewInstrumented(next ports.Notifier, metrics *telemetry.Metrics) *InstrumentedNotifier {
	return &InstrumentedNotifier{next: next, metrics: metrics}
}

func (n *InstrumentedNotifier) Publish(ctx context.Context, notification ports.Notification) error {
	if n.metrics != nil && n.metrics.MutationTotal != nil {
		n.metrics.MutationTotal.Add(ctx, 1, metric.WithAttributes(
			telemetry.AttrAction.String(string(notification.Action)),
		))
	}
	return n.next.Publish(ctx, notification)
}
