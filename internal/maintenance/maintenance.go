// Package maintenance runs the scheduled notification jobs as Go tickers.
// The cadences come from configuration, not hardcoded logic — the service is
// already a persistent process for LISTEN/NOTIFY, so schedules are driven
// from here instead of an external cron.
package maintenance

import (
	"context"
	"log/slog"
	"time"

	"github.com/omkrako/phiz/internal/notifications"
)

// Config controls job intervals. Zero duration disables a job.
type Config struct {
	DigestInterval     time.Duration // weekly activity digest
	InactivityInterval time.Duration // daily inactivity sweep
}

// Start launches all configured job tickers. Blocks until ctx is cancelled.
// Intended to be called with `go`.
func Start(ctx context.Context, dispatcher *notifications.Dispatcher, cfg Config, logger *slog.Logger) {
	logger.Info("Schedule tickers started",
		"digest", cfg.DigestInterval,
		"inactivity", cfg.InactivityInterval)

	tickers := make([]*time.Ticker, 0, 2)
	defer func() {
		for _, t := range tickers {
			t.Stop()
		}
	}()

	if cfg.DigestInterval > 0 {
		t := time.NewTicker(cfg.DigestInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, func() {
			runSchedule(ctx, dispatcher, notifications.ScheduleDigest, logger)
		})
	}

	if cfg.InactivityInterval > 0 {
		t := time.NewTicker(cfg.InactivityInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, func() {
			runSchedule(ctx, dispatcher, notifications.ScheduleInactivity, logger)
		})
	}

	<-ctx.Done()
	logger.Info("Schedule tickers stopped")
}

func runLoop(ctx context.Context, ch <-chan time.Time, fn func()) {
	for {
		select {
		case <-ch:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

func runSchedule(ctx context.Context, dispatcher *notifications.Dispatcher, kind notifications.ScheduleKind, logger *slog.Logger) {
	res, err := dispatcher.Handle(ctx, notifications.Event{
		Kind:     notifications.EventScheduleTick,
		Schedule: kind,
	})
	if err != nil {
		logger.Error("Scheduled job failed", "schedule", kind, "error", err)
		return
	}
	if res.Sent+res.Failed > 0 {
		logger.Info("Scheduled job complete", "schedule", kind, "summary", res.Summary())
	}
}
