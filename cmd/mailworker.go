/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/identia/apiserver/config"
	"github.com/identia/apiserver/internal/notify"
	"github.com/spf13/cobra"
)

var mailworkerVia string

// mailworkerCmd represents the mailworker command. It consumes the
// verification-mail queue that a queue-backed server publishes to and
// delivers each job through a direct mail backend.
var mailworkerCmd = &cobra.Command{
	Use:   "mailworker",
	Short: "Consumes queued verification mail and delivers it",
	Long: `Consumes queued verification mail and delivers it. Usage:

	identia mailworker --via smtp
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

		broker, err := notify.NewBroker(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("connect broker: %w", err)
		}
		defer func() {
			_ = broker.Close()
		}()

		deliveryCfg := cfg.Mail
		deliveryCfg.Backend = mailworkerVia
		delivery, err := notify.NewDirect(deliveryCfg)
		if err != nil {
			return fmt.Errorf("init delivery backend: %w", err)
		}
		defer func() {
			_ = delivery.Close()
		}()

		logger.Info("mailworker consuming", "queue", cfg.Mail.Queue, "via", mailworkerVia)
		if err := notify.RunWorker(cmd.Context(), broker, delivery, logger); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mailworkerCmd)
	mailworkerCmd.Flags().StringVar(&mailworkerVia, "via", "smtp", "direct mail backend used for delivery (smtp or sendgrid)")
}
