// Package handlers exposes the internal job endpoints the scheduler calls.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/internal/appointments"
	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/internal/holds"
	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/internal/reminders"
	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/pkg/logging"
)

// ReminderRunner runs reminder scans and single sends.
type ReminderRunner interface {
	RunScan(ctx context.Context, now time.Time) (reminders.Result, error)
	SendSingle(ctx context.Context, appointmentID string, kind appointments.ReminderKind) error
}

// HoldCleaner expires unpaid pending appointments.
type HoldCleaner interface {
	CleanupExpired(ctx context.Context, now time.Time) (holds.Result, error)
}

// JobsHandler serves the scheduler-triggered job endpoints.
type JobsHandler struct {
	reminders ReminderRunner
	holds     HoldCleaner
	logger    *logging.Logger
}

// NewJobsHandler creates the jobs handler.
func NewJobsHandler(rem ReminderRunner, hc HoldCleaner, logger *logging.Logger) *JobsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &JobsHandler{reminders: rem, holds: hc, logger: logger}
}

type jobResponse struct {
	Success   bool   `json:"success"`
	Result    any    `json:"result,omitempty"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp"`
}

// TriggerReminders runs one full reminder scan.
// POST /reminders/trigger
func (h *JobsHandler) TriggerReminders(w http.ResponseWriter, r *http.Request) {
	result, err := h.reminders.RunScan(r.Context(), time.Now().UTC())
	if err != nil {
		h.logger.Error("reminder run failed", "error", err)
		writeJob(w, http.StatusInternalServerError, jobResponse{Error: "reminder run failed"})
		return
	}
	writeJob(w, http.StatusOK, jobResponse{Success: true, Result: result})
}

type sendReminderRequest struct {
	Type string `json:"type"`
}

// SendReminder sends one reminder immediately, bypassing the windows.
// POST /reminders/send/{appointmentID}
func (h *JobsHandler) SendReminder(w http.ResponseWriter, r *http.Request) {
	appointmentID := chi.URLParam(r, "appointmentID")

	var req sendReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJob(w, http.StatusBadRequest, jobResponse{Error: "invalid request body"})
		return
	}
	kind, err := appointments.ParseReminderKind(req.Type)
	if err != nil {
		writeJob(w, http.StatusBadRequest, jobResponse{Error: err.Error()})
		return
	}

	if err := h.reminders.SendSingle(r.Context(), appointmentID, kind); err != nil {
		status := http.StatusNotFound
		if !errors.Is(err, appointments.ErrNotFound) {
			h.logger.Warn("manual reminder not sent", "appointment_id", appointmentID, "kind", kind, "error", err)
		}
		writeJob(w, status, jobResponse{Error: "reminder not sent"})
		return
	}
	writeJob(w, http.StatusOK, jobResponse{
		Success: true,
		Result:  map[string]string{"appointmentId": appointmentID, "type": string(kind)},
	})
}

// CleanupPaymentHolds expires pending appointments whose deposit never
// arrived.
// POST /reminders/cleanup-payment-holds
func (h *JobsHandler) CleanupPaymentHolds(w http.ResponseWriter, r *http.Request) {
	result, err := h.holds.CleanupExpired(r.Context(), time.Now().UTC())
	if err != nil {
		h.logger.Error("payment-hold run failed", "error", err)
		writeJob(w, http.StatusInternalServerError, jobResponse{Error: "payment-hold run failed"})
		return
	}
	writeJob(w, http.StatusOK, jobResponse{Success: true, Result: result})
}

func writeJob(w http.ResponseWriter, status int, resp jobResponse) {
	resp.Timestamp = time.Now().UTC().Format(time.RFC3339)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
