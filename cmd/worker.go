package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/frahmantamala/expense-tracker/internal/core/events/amqp"
	"github.com/frahmantamala/expense-tracker/pkg/logger"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start background workers that consume expense events from the broker.`,
}

var auditWorkerCmd = &cobra.Command{
	Use:   "audit",
	Short: "Start the expense audit consumer",
	Long:  `Consume expense lifecycle events from the audit queue and write them to the log`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return startAuditWorker(ctx)
	},
}

func init() {
	workerCmd.AddCommand(auditWorkerCmd)
}

func startAuditWorker(ctx context.Context) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.Events.Enabled() {
		return errors.New("events.amqp_url is not configured")
	}

	logger.Configure(logger.Options{
		Format: cfg.Observability.Logging.Format,
		Level:  cfg.Observability.Logging.Level,
	})
	log := logger.L().With("worker", "audit")

	client, err := amqp.NewClient(cfg.Events.AMQPURL, cfg.Events.Exchange, cfg.Events.Queue, log)
	if err != nil {
		return fmt.Errorf("failed to connect to broker: %w", err)
	}
	defer client.Close()

	err = client.Consume(ctx, func(_ context.Context, msg amqp.Message) error {
		log.Info("expense event",
			"event_id", msg.EventID,
			"event_type", msg.Type,
			"expense_id", msg.ExpenseID,
			"user_id", msg.UserID,
			"occurred_at", msg.OccurredAt)
		return nil
	})
	if errors.Is(err, context.Canceled) {
		log.Info("audit worker stopped")
		return nil
	}
	return err
}
