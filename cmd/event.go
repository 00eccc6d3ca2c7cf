package cmd

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/frahmantamala/expense-tracker/internal/core/events"
	"github.com/frahmantamala/expense-tracker/internal/core/events/amqp"
	"github.com/frahmantamala/expense-tracker/pkg/logger"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Manage events: publish test expense events to the bus and, when configured, the broker`,
}

var publishEventCmd = &cobra.Command{
	Use:       "publish [event-type]",
	Short:     "Publish a test event",
	Long:      `Publish a test expense event (expense.created, expense.updated or expense.deleted) for testing and debugging`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: events.ExpenseEventTypes,
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishTestEvent(args[0])
	},
}

var (
	eventExpenseID string
	eventUserID    string
)

func publishTestEvent(eventType string) error {
	if !slices.Contains(events.ExpenseEventTypes, eventType) {
		return fmt.Errorf("unknown event type %q (want one of %v)", eventType, events.ExpenseEventTypes)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger.Configure(logger.Options{
		Format: cfg.Observability.Logging.Format,
		Level:  cfg.Observability.Logging.Level,
	})
	log := logger.L()

	bus := events.NewEventBus(log)
	bus.Subscribe(eventType, func(_ context.Context, e events.Event) error {
		log.Info("event delivered", "event_type", e.EventType(), "event_id", e.EventID())
		return nil
	})

	if cfg.Events.Enabled() {
		client, err := amqp.NewClient(cfg.Events.AMQPURL, cfg.Events.Exchange, cfg.Events.Queue, log)
		if err != nil {
			return fmt.Errorf("failed to connect to broker: %w", err)
		}
		defer client.Close()
		client.Register(bus)
	}

	if eventExpenseID == "" {
		eventExpenseID = uuid.NewString()
	}
	if eventUserID == "" {
		eventUserID = uuid.NewString()
	}
	testEvent := events.NewExpenseEvent(eventType, eventExpenseID, eventUserID, time.Now().UTC())

	log.Info("publishing test event", "event_type", eventType, "event_id", testEvent.EventID())
	if err := bus.PublishSync(context.Background(), testEvent); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	log.Info("test event published successfully")
	return nil
}

func init() {
	publishEventCmd.Flags().StringVar(&eventExpenseID, "expense-id", "", "expense id carried by the event (random when empty)")
	publishEventCmd.Flags().StringVar(&eventUserID, "user-id", "", "user id carried by the event (random when empty)")

	eventCmd.AddCommand(publishEventCmd)
}
