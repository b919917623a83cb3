package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/expense-approval/internal/core/events"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var forwarded = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "expense_notifications_forwarded_total",
	Help: "Lifecycle events forwarded to the message broker, by event type and result",
}, []string{"type", "result"})

type Sink interface {
	Publish(ctx context.Context, n *Notification) error
}

// Forwarder copies lifecycle events from the in-process bus to a Sink.
type Forwarder struct {
	sink   Sink
	logger *slog.Logger
}

func NewForwarder(sink Sink, logger *slog.Logger) *Forwarder {
	return &Forwarder{
		sink:   sink,
		logger: logger,
	}
}

func (f *Forwarder) HandleLifecycleEvent(ctx context.Context, event events.Event) error {
	n, err := FromEvent(event)
	if err != nil {
		f.logger.Error("invalid event type for notification forwarder", "event_type", event.EventType())
		return err
	}

	if err := f.sink.Publish(ctx, n); err != nil {
		forwarded.WithLabelValues(n.Type, "error").Inc()
		f.logger.Error("failed to forward notification",
			"error", err,
			"event_id", n.EventID,
			"expense_id", n.ExpenseID)
		return fmt.Errorf("forward %s for expense %d: %w", n.Type, n.ExpenseID, err)
	}

	forwarded.WithLabelValues(n.Type, "ok").Inc()
	f.logger.Info("notification forwarded",
		"event_id", n.EventID,
		"type", n.Type,
		"expense_id", n.ExpenseID)
	return nil
}

func (f *Forwarder) RegisterEventHandlers(bus *events.EventBus) {
	bus.SubscribeAll(f.HandleLifecycleEvent, events.LifecycleEventTypes...)

	f.logger.Info("notification handlers registered", "handlers", events.LifecycleEventTypes)
}

// LogHandler is the worker-side consumer: it records each delivered
// notification addressed to the expense owner.
func LogHandler(logger *slog.Logger) func(context.Context, *Notification) error {
	return func(ctx context.Context, n *Notification) error {
		logger.InfoContext(ctx, "expense notification",
			"type", n.Type,
			"recipient_user_id", n.UserID,
			"expense_id", n.ExpenseID,
			"status", n.Status,
			"amount", n.Amount,
			"currency", n.Currency,
			"approver_id", n.ApproverID,
			"trace_id", n.TraceID,
			"occurred_at", n.OccurredAt)
		return nil
	}
}
