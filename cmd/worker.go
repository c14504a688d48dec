/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nexus-dash/apiserver/internal/activity"
	"github.com/nexus-dash/apiserver/internal/db"
	"github.com/nexus-dash/apiserver/internal/mq"
	"github.com/nexus-dash/apiserver/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// workerCmd represents the worker command
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Records activity events from the message queue",
	Long: `Consumes the activity channel and writes every event into the
activity log. Requires a broker backend (MQ_BACKEND=rabbitmq or pubsub).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		queue, err := mq.Open(ctx, cfg.MQ)
		if err != nil {
			return fmt.Errorf("open mq: %w", err)
		}
		defer func() { _ = queue.Close() }()
		if queue.InProcess() {
			return errors.New("worker needs a broker backend; the memory backend is consumed by the server itself")
		}

		dbConn, err := db.Open(ctx, cfg)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer func() { _ = dbConn.Close() }()

		logger.Info("worker_started", zap.String("channel", cfg.ActivityChannel), zap.String("backend", queue.Name()))
		err = activity.Consume(ctx, queue, cfg.ActivityChannel, store.NewActivityRepository(dbConn), logger)
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("consume activity: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
