package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/omkrako/phiz/internal/api/respond"
	"github.com/omkrako/phiz/internal/notifications"
)

// SendNotification handles POST /api/v1/notifications/send — the on-demand
// single-target send. Every failure is surfaced to the caller with a
// distinct error code, unlike the event-triggered paths.
func (h *Handler) SendNotification(w http.ResponseWriter, r *http.Request) {
	var req notifications.DirectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_BODY", "Request body must be valid JSON")
		return
	}

	receipt, err := h.dispatcher.SendDirect(r.Context(), req)
	if err != nil {
		writeSendError(w, err)
		return
	}

	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"receipt_id": receipt,
	})
}

func writeSendError(w http.ResponseWriter, err error) {
	var validation *notifications.ValidationError
	switch {
	case errors.As(err, &validation):
		respond.WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", validation.Error())
	case errors.Is(err, notifications.ErrNotFound):
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", "Recipient not found")
	case errors.Is(err, notifications.ErrNoDeliveryToken):
		respond.WriteError(w, http.StatusUnprocessableEntity, "MISSING_CAPABILITY", "Recipient has no delivery token")
	case errors.Is(err, notifications.ErrDeliveryFailed):
		respond.WriteErrorDetail(w, http.StatusBadGateway, "DELIVERY_FAILURE", "Push delivery failed", err.Error())
	default:
		respond.WriteErrorDetail(w, http.StatusInternalServerError, "INTERNAL", "Unexpected error", err.Error())
	}
}

// RunDigest handles POST /api/v1/jobs/digest/run — a manual trigger for the
// digest schedule, for operations use.
func (h *Handler) RunDigest(w http.ResponseWriter, r *http.Request) {
	h.runSchedule(w, r, notifications.ScheduleDigest)
}

// RunInactivity handles POST /api/v1/jobs/inactivity/run — a manual trigger
// for the inactivity sweep.
func (h *Handler) RunInactivity(w http.ResponseWriter, r *http.Request) {
	h.runSchedule(w, r, notifications.ScheduleInactivity)
}

func (h *Handler) runSchedule(w http.ResponseWriter, r *http.Request, kind notifications.ScheduleKind) {
	res, err := h.dispatcher.Handle(r.Context(), notifications.Event{
		Kind:     notifications.EventScheduleTick,
		Schedule: kind,
	})
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusInternalServerError, "JOB_FAILED", "Scheduled job failed", err.Error())
		return
	}

	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"schedule": string(kind),
		"sent":     res.Sent,
		"failed":   res.Failed,
		"errors":   res.Errors,
	})
}
