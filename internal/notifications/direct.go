package notifications

import (
	"context"
	"fmt"
)

// DirectRequest is a caller-supplied single-target send.
type DirectRequest struct {
	RecipientID string            `json:"recipient_id"`
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	Data        map[string]string `json:"data,omitempty"`
}

// SendDirect performs one targeted delivery on behalf of a waiting caller.
// Unlike the event-triggered paths every failure here is surfaced: a
// *ValidationError for missing fields, ErrNotFound for an unknown recipient,
// ErrNoDeliveryToken for a token-less one, and a wrapped ErrDeliveryFailed
// when the gateway call fails. Returns the gateway receipt id on success.
func (d *Dispatcher) SendDirect(ctx context.Context, req DirectRequest) (string, error) {
	switch {
	case req.RecipientID == "":
		return "", &ValidationError{Field: "recipient_id"}
	case req.Title == "":
		return "", &ValidationError{Field: "title"}
	case req.Body == "":
		return "", &ValidationError{Field: "body"}
	}

	user, err := d.store.GetUser(ctx, req.RecipientID)
	if err != nil {
		return "", fmt.Errorf("get recipient %s: %w", req.RecipientID, err)
	}
	if user.Token == "" {
		return "", fmt.Errorf("recipient %s: %w", req.RecipientID, ErrNoDeliveryToken)
	}

	data := make(map[string]string, len(req.Data))
	for k, v := range req.Data {
		data[k] = v
	}
	channel := data["channel_id"]
	if channel == "" {
		channel = ChannelContent
	}

	msg := &Message{
		Token:    user.Token,
		Title:    req.Title,
		Body:     req.Body,
		Data:     data,
		Priority: PriorityHigh,
		Channel:  channel,
	}

	receipt, err := d.gateway.Send(ctx, msg)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	d.logger.Info("direct notification sent", "recipient_id", req.RecipientID, "receipt", receipt)
	return receipt, nil
}
