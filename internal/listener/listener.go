// Package listener provides a Postgres LISTEN/NOTIFY consumer that feeds
// data-mutation events into the notification dispatcher. It holds a
// dedicated pgx connection (not from the pool) listening on the
// `content_created` and `result_recorded` channels.
//
// Database triggers fire pg_notify with a JSON payload when a content or
// result row is inserted; this consumer decodes the payload and invokes the
// dispatcher, which is the Go-side equivalent of a document-write trigger.
package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/omkrako/phiz/internal/notifications"
)

const (
	channelContentCreated = "content_created"
	channelResultRecorded = "result_recorded"
	reconnectBackoff      = 5 * time.Second
	maxReconnect          = 30 * time.Second
)

// contentPayload is the JSON payload from pg_notify('content_created', ...).
type contentPayload struct {
	ID       string `json:"id"`
	Category string `json:"category"`
}

// resultPayload is the JSON payload from pg_notify('result_recorded', ...).
// TotalUnits is a pointer so an omitted field can be distinguished from an
// explicit zero: omitted defaults to the standard unit count.
type resultPayload struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	Score      int    `json:"score"`
	TotalUnits *int   `json:"total_units"`
	Timestamp  int64  `json:"ts"`
}

// Start opens a dedicated connection and listens on both event channels.
// It reconnects automatically on connection loss. Blocks until ctx is
// cancelled. Intended to be called with `go`.
func Start(ctx context.Context, dbURL string, dispatcher *notifications.Dispatcher, logger *slog.Logger) {
	backoff := reconnectBackoff

	for {
		err := listenLoop(ctx, dbURL, dispatcher, logger)
		if ctx.Err() != nil {
			logger.Info("Event listener stopped (context cancelled)")
			return
		}

		logger.Error("Event listener disconnected, reconnecting...",
			"error", err, "backoff", backoff)

		select {
		case <-time.After(backoff):
			backoff = min(backoff*2, maxReconnect)
		case <-ctx.Done():
			return
		}
	}
}

// listenLoop runs a single listen session. Returns when the connection drops
// or the context is cancelled.
func listenLoop(ctx context.Context, dbURL string, dispatcher *notifications.Dispatcher, logger *slog.Logger) error {
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	for _, ch := range []string{channelContentCreated, channelResultRecorded} {
		if _, err := conn.Exec(ctx, "LISTEN "+ch); err != nil {
			return fmt.Errorf("LISTEN %s: %w", ch, err)
		}
	}
	logger.Info("Event listener connected",
		"channels", []string{channelContentCreated, channelResultRecorded})

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}

		ev, err := decodeEvent(notification.Channel, notification.Payload)
		if err != nil {
			logger.Warn("Failed to parse event payload",
				"channel", notification.Channel,
				"payload", notification.Payload,
				"error", err)
			continue
		}

		logger.Info("Event received", "kind", ev.Kind)

		// Process asynchronously so a slow fan-out never blocks the
		// listener connection.
		go func(ev notifications.Event) {
			if _, err := dispatcher.Handle(ctx, ev); err != nil {
				logger.Error("Event dispatch failed", "kind", ev.Kind, "error", err)
			}
		}(ev)
	}
}

func decodeEvent(channel, payload string) (notifications.Event, error) {
	switch channel {
	case channelContentCreated:
		var p contentPayload
		if err := json.Unmarshal([]byte(payload), &p); err != nil {
			return notifications.Event{}, err
		}
		return notifications.Event{
			Kind: notifications.EventContentCreated,
			Content: &notifications.ContentRecord{
				ID:       p.ID,
				Category: p.Category,
			},
		}, nil

	case channelResultRecorded:
		var p resultPayload
		if err := json.Unmarshal([]byte(payload), &p); err != nil {
			return notifications.Event{}, err
		}
		units := notifications.DefaultTotalUnits
		if p.TotalUnits != nil {
			units = *p.TotalUnits
		}
		return notifications.Event{
			Kind: notifications.EventResultRecorded,
			Result: &notifications.ResultRecord{
				ID:         p.ID,
				UserID:     p.UserID,
				Score:      p.Score,
				TotalUnits: units,
				CreatedAt:  time.Unix(p.Timestamp, 0),
			},
		}, nil
	}
	return notifications.Event{}, fmt.Errorf("unknown channel %q", channel)
}
