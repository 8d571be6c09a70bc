// Package gateway implements the push-delivery transport consumed by the
// notification pipeline. Delivery is best effort and fire-and-forget: one
// HTTP call per message, a receipt id on success, an error otherwise.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/omkrako/phiz/internal/notifications"
)

const (
	defaultEndpoint = "https://fcm.googleapis.com"
	sendTimeout     = 15 * time.Second
)

// New returns an FCM-backed gateway, or a Disabled gateway that logs sends
// when the project id or auth token is not configured.
func New(endpoint, projectID, authToken string, logger *slog.Logger) notifications.Gateway {
	if projectID == "" || authToken == "" {
		return &Disabled{logger: logger}
	}
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &FCM{
		endpoint:  endpoint,
		projectID: projectID,
		authToken: authToken,
		client:    &http.Client{Timeout: sendTimeout},
		logger:    logger,
	}
}

// --------------------------------------------------------------------------
// FCM HTTP v1 sender
// --------------------------------------------------------------------------

// FCM sends messages through the FCM HTTP v1 API.
type FCM struct {
	endpoint  string
	projectID string
	authToken string
	client    *http.Client
	logger    *slog.Logger
}

// Wire types for the v1 messages:send call.
type wireMessage struct {
	Message wireBody `json:"message"`
}

type wireBody struct {
	Topic        string            `json:"topic,omitempty"`
	Token        string            `json:"token,omitempty"`
	Notification wireNotification  `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
	Android      *wireAndroid      `json:"android,omitempty"`
}

type wireNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type wireAndroid struct {
	Notification wireAndroidNotification `json:"notification"`
}

type wireAndroidNotification struct {
	ChannelID   string `json:"channel_id,omitempty"`
	ClickAction string `json:"click_action,omitempty"`
	Priority    string `json:"notification_priority,omitempty"`
}

// Send delivers one message and returns the server-assigned message name as
// the receipt id.
func (g *FCM) Send(ctx context.Context, msg *notifications.Message) (string, error) {
	payload := wireMessage{
		Message: wireBody{
			Topic: msg.Topic,
			Token: msg.Token,
			Notification: wireNotification{
				Title: msg.Title,
				Body:  msg.Body,
			},
			Data: msg.Data,
			Android: &wireAndroid{
				Notification: wireAndroidNotification{
					ChannelID:   msg.Channel,
					ClickAction: msg.ClickAction,
					Priority:    wirePriority(msg.Priority),
				},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal message: %w", err)
	}

	url := fmt.Sprintf("%s/v1/projects/%s/messages:send", g.endpoint, g.projectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.authToken)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("send: status %d: %s", resp.StatusCode, detail)
	}

	var out struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return out.Name, nil
}

func wirePriority(p string) string {
	if p == notifications.PriorityHigh {
		return "PRIORITY_HIGH"
	}
	return "PRIORITY_DEFAULT"
}

// --------------------------------------------------------------------------
// Disabled sender
// --------------------------------------------------------------------------

// Disabled logs send attempts instead of delivering. Used in development
// when no push credentials are configured.
type Disabled struct {
	logger *slog.Logger
}

// Send logs the message and returns a synthetic receipt.
func (g *Disabled) Send(_ context.Context, msg *notifications.Message) (string, error) {
	target := msg.Topic
	if target == "" {
		target = "token"
	}
	g.logger.Info("push delivery disabled, message dropped",
		"target", target, "title", msg.Title, "body", msg.Body)
	return "dry-run", nil
}
