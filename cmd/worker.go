package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/frahmantamala/expense-approval/internal/notify"
	"github.com/frahmantamala/expense-approval/pkg/logger"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start background workers that consume expense lifecycle notifications from the message broker.`,
}

var notificationWorkerCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Start the notification consumer",
	Long:  `Consume expense lifecycle notifications and deliver them to expense owners`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := startNotificationWorker(); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
	},
}

func startNotificationWorker() error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.Messaging.Enabled() {
		return errors.New("messaging.amqp_url is not configured")
	}

	log := logger.LoggerWrapper()

	client, err := notify.NewClient(cfg.Messaging.AMQPURL, cfg.Messaging.Exchange, cfg.Messaging.Queue, log)
	if err != nil {
		return fmt.Errorf("failed to connect to message broker: %w", err)
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("notification worker is running. Press Ctrl+C to stop.", "queue", cfg.Messaging.Queue)

	err = client.Consume(ctx, notify.LogHandler(log))
	if errors.Is(err, context.Canceled) {
		log.Info("notification worker shutdown complete")
		return nil
	}
	return err
}

func init() {
	workerCmd.AddCommand(notificationWorkerCmd)
	rootCmd.AddCommand(workerCmd)
}
