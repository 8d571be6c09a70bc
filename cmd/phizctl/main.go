// Command phizctl is the notification service operations CLI.
//
// Usage:
//
//	phizctl send --recipient u123 --title "Hello" --body "World"
//	phizctl digest
//	phizctl inactivity
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/omkrako/phiz/internal/config"
	"github.com/omkrako/phiz/internal/db"
	"github.com/omkrako/phiz/internal/gateway"
	"github.com/omkrako/phiz/internal/notifications"
	"github.com/omkrako/phiz/internal/store"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "phizctl",
		Short: "Phiz notification service operations CLI",
	}

	root.AddCommand(sendCmd())
	root.AddCommand(digestCmd())
	root.AddCommand(inactivityCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// send command
// --------------------------------------------------------------------------

func sendCmd() *cobra.Command {
	var recipient, title, body string
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a notification to a single recipient",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, dispatcher *notifications.Dispatcher) error {
				receipt, err := dispatcher.SendDirect(ctx, notifications.DirectRequest{
					RecipientID: recipient,
					Title:       title,
					Body:        body,
				})
				if err != nil {
					return err
				}
				logger.Info("Notification sent", "receipt", receipt)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&recipient, "recipient", "", "Recipient user id")
	cmd.Flags().StringVar(&title, "title", "", "Notification title")
	cmd.Flags().StringVar(&body, "body", "", "Notification body")
	return cmd
}

// --------------------------------------------------------------------------
// schedule commands
// --------------------------------------------------------------------------

func digestCmd() *cobra.Command {
	return scheduleCmd("digest", "Run the activity digest now", notifications.ScheduleDigest)
}

func inactivityCmd() *cobra.Command {
	return scheduleCmd("inactivity", "Run the inactivity sweep now", notifications.ScheduleInactivity)
}

func scheduleCmd(use, short string, kind notifications.ScheduleKind) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, dispatcher *notifications.Dispatcher) error {
				res, err := dispatcher.Handle(ctx, notifications.Event{
					Kind:     notifications.EventScheduleTick,
					Schedule: kind,
				})
				if err != nil {
					return err
				}
				logger.Info("Job finished", "schedule", kind, "summary", res.Summary())
				if len(res.Errors) > 0 {
					for _, e := range res.Errors {
						logger.Error("delivery error", "error", e)
					}
				}
				return nil
			})
		},
	}
}

// run wires config, database, and gateway, then invokes fn.
func run(fn func(ctx context.Context, dispatcher *notifications.Dispatcher) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	push := gateway.New(cfg.FCMEndpoint, cfg.FCMProjectID, cfg.FCMAuthToken, logger)
	dispatcher := notifications.New(store.New(pool.Pool), push, cfg.NotifyOptions(), logger)

	return fn(ctx, dispatcher)
}
