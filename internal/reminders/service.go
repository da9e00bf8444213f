package reminders

import (
	"context"
	"fmt"
	"time"

	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/internal/appointments"
	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/internal/observability/metrics"
	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/internal/runlog"
	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/pkg/logging"
)

// Result aggregates one reminder run for operators. There is no per-item
// error surface beyond the logs.
type Result struct {
	Sent24h int `json:"sent24h"`
	Sent2h  int `json:"sent2h"`
	Errors  int `json:"errors"`
}

// AppointmentLookup fetches a single appointment for the manual endpoint.
type AppointmentLookup interface {
	GetByID(ctx context.Context, id string) (*appointments.Appointment, error)
}

// RunRecorder persists one run row. Best-effort.
type RunRecorder interface {
	Record(ctx context.Context, run runlog.Run) error
}

// Service runs the full reminder scan: one logical run per HTTP trigger,
// sequential per item, finished before the response is written.
type Service struct {
	scanner    *Scanner
	dispatcher *Dispatcher
	lookup     AppointmentLookup
	runs       RunRecorder
	metrics    *metrics.JobMetrics
	logger     *logging.Logger
}

// NewService wires the reminder service. runs and metrics may be nil.
func NewService(scanner *Scanner, dispatcher *Dispatcher, lookup AppointmentLookup, runs RunRecorder, m *metrics.JobMetrics, logger *logging.Logger) *Service {
	if scanner == nil || dispatcher == nil {
		panic("reminders: scanner and dispatcher are required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		scanner:    scanner,
		dispatcher: dispatcher,
		lookup:     lookup,
		runs:       runs,
		metrics:    m,
		logger:     logger,
	}
}

// RunScan executes one full reminder run. Per-item failures are counted and
// logged, never aborting the batch; only a failed scan query is a top-level
// error, and the whole run is safely retriable because every send is
// flag-guarded.
func (s *Service) RunScan(ctx context.Context, now time.Time) (Result, error) {
	started := time.Now()

	candidates, err := s.scanner.Scan(ctx, now)
	if err != nil {
		s.recordRun(ctx, started, Result{}, err)
		return Result{}, err
	}

	result := Result{Errors: candidates.Quarantined}
	s.metrics.ObserveQuarantine(scanSource, candidates.Quarantined)

	for i := range candidates.Due24h {
		appt := &candidates.Due24h[i]
		sent, err := s.dispatcher.Send(ctx, appt, appointments.Reminder24h, now)
		if err != nil {
			result.Errors++
			s.logger.Error("24h reminder failed", "appointment_id", appt.ID, "error", err)
			continue
		}
		if sent {
			result.Sent24h++
			s.metrics.ObserveReminderSent(string(appointments.Reminder24h))
		}
	}

	for i := range candidates.Due2h {
		appt := &candidates.Due2h[i]
		sent, err := s.dispatcher.Send(ctx, appt, appointments.Reminder2h, now)
		if err != nil {
			result.Errors++
			s.logger.Error("2h reminder failed", "appointment_id", appt.ID, "error", err)
			continue
		}
		if sent {
			result.Sent2h++
			s.metrics.ObserveReminderSent(string(appointments.Reminder2h))
		}
	}

	s.logger.Info("reminder run complete",
		"sent_24h", result.Sent24h, "sent_2h", result.Sent2h, "errors", result.Errors)
	s.recordRun(ctx, started, result, nil)
	return result, nil
}

// SendSingle dispatches one reminder by appointment id, for the manual
// endpoint. A skip (not connected, no credential, already sent) is reported
// as a failed send so the endpoint can answer 404.
func (s *Service) SendSingle(ctx context.Context, appointmentID string, kind appointments.ReminderKind) error {
	if s.lookup == nil {
		return fmt.Errorf("reminders: no appointment lookup configured")
	}
	appt, err := s.lookup.GetByID(ctx, appointmentID)
	if err != nil {
		return fmt.Errorf("reminders: load appointment %s: %w", appointmentID, err)
	}
	sent, err := s.dispatcher.Send(ctx, appt, kind, time.Now().UTC())
	if err != nil {
		return err
	}
	if !sent {
		return fmt.Errorf("reminders: %s reminder for %s was skipped", kind, appointmentID)
	}
	s.metrics.ObserveReminderSent(string(kind))
	return nil
}

func (s *Service) recordRun(ctx context.Context, started time.Time, result Result, runErr error) {
	status := "success"
	errMsg := ""
	if runErr != nil {
		status = "error"
		errMsg = runErr.Error()
	}
	s.metrics.ObserveRun(runlog.JobReminders, status, time.Since(started).Seconds())

	if s.runs == nil {
		return
	}
	if err := s.runs.Record(ctx, runlog.Run{
		Job:        runlog.JobReminders,
		StartedAt:  started.UTC(),
		FinishedAt: time.Now().UTC(),
		Sent24h:    result.Sent24h,
		Sent2h:     result.Sent2h,
		Errors:     result.Errors,
		Success:    runErr == nil,
		ErrorMsg:   errMsg,
	}); err != nil {
		s.logger.Warn("run ledger write failed", "job", runlog.JobReminders, "error", err)
	}
}
