package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/frahmantamala/expense-approval/internal/core/events"
	"github.com/frahmantamala/expense-approval/internal/notify"
	"github.com/frahmantamala/expense-approval/pkg/logger"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Publish test lifecycle events to the event bus and, when configured, the message broker`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish a test lifecycle event",
	Long:  `Publish a test expense lifecycle event (expense.submitted, expense.approved or expense.rejected)`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := publishTestEvent(args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
	},
}

var (
	eventExpenseID int64
	eventUserID    int64
	eventAmount    string
)

func publishTestEvent(eventType string) error {
	if !isLifecycleEvent(eventType) {
		return fmt.Errorf("unknown event type %q, expected one of %v", eventType, events.LifecycleEventTypes)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.LoggerWrapper()

	eventBus := events.NewEventBus(log)
	eventBus.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
		log.Info("test handler received event",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"payload", event.Payload())
		return nil
	})

	if cfg.Messaging.Enabled() {
		client, err := notify.NewClient(cfg.Messaging.AMQPURL, cfg.Messaging.Exchange, cfg.Messaging.Queue, log)
		if err != nil {
			return fmt.Errorf("failed to connect to message broker: %w", err)
		}
		defer client.Close()
		notify.NewForwarder(client, log).RegisterEventHandlers(eventBus)
	}

	event := events.NewExpenseLifecycleEvent(eventType, events.LifecycleChange{
		ExpenseID:  eventExpenseID,
		UserID:     eventUserID,
		Status:     statusForEvent(eventType),
		Amount:     eventAmount,
		Currency:   "USD",
		OccurredAt: time.Now().UTC(),
	})

	log.Info("publishing test event", "event_type", eventType, "event_id", event.EventID())

	// synchronous so the broker publish finishes before the client closes
	if err := eventBus.PublishSync(context.Background(), event); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	log.Info("test event published successfully")
	return nil
}

func isLifecycleEvent(eventType string) bool {
	for _, t := range events.LifecycleEventTypes {
		if t == eventType {
			return true
		}
	}
	return false
}

func statusForEvent(eventType string) string {
	switch eventType {
	case events.EventTypeExpenseApproved:
		return "approved"
	case events.EventTypeExpenseRejected:
		return "rejected"
	default:
		return "pending"
	}
}

func init() {
	publishEventCmd.Flags().Int64Var(&eventExpenseID, "expense-id", 1, "Expense id carried by the event")
	publishEventCmd.Flags().Int64Var(&eventUserID, "user-id", 1, "Owner id carried by the event")
	publishEventCmd.Flags().StringVar(&eventAmount, "amount", "100.00", "Amount carried by the event")

	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
