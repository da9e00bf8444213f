// Package holds expires pending appointments whose advance payment never
// arrived. One run scans every pending appointment, cancels the ones past the
// hold window, and fans out the best-effort side effects: conversation
// snapshots, archival, clinic notification.
package holds

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/internal/appointments"
	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/internal/conversation"
	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/internal/observability/metrics"
	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/internal/quarantine"
	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/internal/runlog"
	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/pkg/logging"
)

const scanSource = "hold-scan"

// PendingSource lists every pending appointment.
type PendingSource interface {
	QueryPending(ctx context.Context) ([]appointments.Appointment, []appointments.InvalidDoc, error)
}

// Canceller builds the conditional write that expires one appointment.
type Canceller interface {
	CancellationItem(id, reason string, now time.Time) types.TransactWriteItem
}

// Committer groups cancellation writes into bounded atomic batches.
type Committer interface {
	Add(ctx context.Context, item types.TransactWriteItem) (bool, error)
	Flush(ctx context.Context) error
	ConditionNoops() int
}

// Quarantiner records documents the scan could not interpret.
type Quarantiner interface {
	Add(ctx context.Context, rec quarantine.Record) error
}

// ContextSyncer pushes cancelled snapshots onto conversation documents.
type ContextSyncer interface {
	Sync(ctx context.Context, clinicID string, snap conversation.Snapshot)
}

// Archiver persists the cancelled appointments of one run.
type Archiver interface {
	ArchiveCancellations(ctx context.Context, cancelled []appointments.Appointment, now time.Time) error
}

// Notifier tells clinic staff about the run's automatic cancellations.
type Notifier interface {
	NotifyAutoCancellations(ctx context.Context, cancelled []appointments.Appointment) error
}

// RunRecorder persists one run row. Best-effort.
type RunRecorder interface {
	Record(ctx context.Context, run runlog.Run) error
}

// Result aggregates one cleanup run.
type Result struct {
	Scanned int `json:"scanned"`
	Expired int `json:"expired"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

// Monitor runs the payment-hold cleanup.
type Monitor struct {
	source      PendingSource
	canceller   Canceller
	committer   Committer
	quarantiner Quarantiner
	syncer      ContextSyncer
	archiver    Archiver
	notifier    Notifier
	runs        RunRecorder
	metrics     *metrics.JobMetrics
	hold        time.Duration
	logger      *logging.Logger
}

// NewMonitor wires a hold monitor. Everything after committer may be nil.
func NewMonitor(source PendingSource, canceller Canceller, committer Committer, q Quarantiner, syncer ContextSyncer, archiver Archiver, notifier Notifier, runs RunRecorder, m *metrics.JobMetrics, hold time.Duration, logger *logging.Logger) *Monitor {
	if source == nil || canceller == nil || committer == nil {
		panic("holds: source, canceller and committer are required")
	}
	if hold <= 0 {
		hold = 15 * time.Minute
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Monitor{
		source:      source,
		canceller:   canceller,
		committer:   committer,
		quarantiner: q,
		syncer:      syncer,
		archiver:    archiver,
		notifier:    notifier,
		runs:        runs,
		metrics:     m,
		hold:        hold,
		logger:      logger,
	}
}

// CleanupExpired scans every pending appointment and expires the ones whose
// advance payment is still missing past the hold window. The cancellation
// write is conditional on the appointment still being pending, so a payment
// landing mid-run wins the race and the cancellation becomes a counted no-op.
func (m *Monitor) CleanupExpired(ctx context.Context, now time.Time) (Result, error) {
	started := time.Now()

	pending, invalid, err := m.source.QueryPending(ctx)
	if err != nil {
		m.recordRun(ctx, started, Result{}, err)
		return Result{}, err
	}

	result := Result{Scanned: len(pending) + len(invalid)}
	for _, doc := range invalid {
		result.Errors++
		m.logger.Warn("pending appointment quarantined", "doc_id", doc.ID, "issues", doc.Issues)
		if m.quarantiner != nil {
			if qerr := m.quarantiner.Add(ctx, quarantine.Record{
				DocID:  doc.ID,
				Source: scanSource,
				Issues: doc.Issues,
				Raw:    doc.Raw,
				SeenAt: now,
			}); qerr != nil {
				m.logger.Error("quarantine write failed", "doc_id", doc.ID, "error", qerr)
			}
		}
	}
	m.metrics.ObserveQuarantine(scanSource, len(invalid))

	reason := m.cancellationReason()
	noopsBefore := m.committer.ConditionNoops()

	var (
		cancelled []appointments.Appointment
		group     []appointments.Appointment
	)
	flushGroup := func() {
		dropped := m.committer.ConditionNoops() - noopsBefore
		noopsBefore = m.committer.ConditionNoops()
		result.Skipped += dropped
		if dropped > 0 {
			// We cannot tell which entries raced, so the whole group's
			// side effects are withheld rather than risk marking a paid
			// appointment cancelled downstream.
			m.logger.Info("cancellation group raced payments, side effects withheld",
				"group", len(group), "dropped", dropped)
			group = group[:0]
			return
		}
		for i := range group {
			a := group[i]
			a.Status = appointments.StatusCancelled
			a.CancellationReason = reason
			a.CancelledAt = now.UTC().Format(time.RFC3339)
			cancelled = append(cancelled, a)
			m.metrics.ObserveHoldCancellation()
			if m.syncer != nil {
				m.syncer.Sync(ctx, a.ClinicID, conversation.SnapshotOf(&a, now))
			}
		}
		group = group[:0]
	}

	for i := range pending {
		appt := &pending[i]
		if !appt.NeedsDepositRelease() {
			result.Skipped++
			continue
		}
		anchor, ok := appt.HoldAnchor()
		if !ok {
			result.Errors++
			m.logger.Warn("pending appointment has no usable hold anchor",
				"appointment_id", appt.ID, "created_at", appt.CreatedAt, "updated_at", appt.UpdatedAt)
			continue
		}
		if now.Sub(anchor) < m.hold {
			result.Skipped++
			continue
		}

		flushed, err := m.committer.Add(ctx, m.canceller.CancellationItem(appt.ID, reason, now))
		if err != nil {
			result.Errors++
			m.logger.Error("cancellation batch commit failed", "error", err)
			group = group[:0]
			noopsBefore = m.committer.ConditionNoops()
			continue
		}
		group = append(group, *appt)
		if flushed {
			flushGroup()
		}
	}

	if err := m.committer.Flush(ctx); err != nil {
		result.Errors++
		m.logger.Error("final cancellation commit failed", "error", err)
		group = group[:0]
		noopsBefore = m.committer.ConditionNoops()
	} else {
		flushGroup()
	}
	result.Expired = len(cancelled)

	if len(cancelled) > 0 {
		if m.archiver != nil {
			if err := m.archiver.ArchiveCancellations(ctx, cancelled, now); err != nil {
				m.logger.Error("cancellation archive failed", "count", len(cancelled), "error", err)
			}
		}
		if m.notifier != nil {
			if err := m.notifier.NotifyAutoCancellations(ctx, cancelled); err != nil {
				m.logger.Error("cancellation notification failed", "count", len(cancelled), "error", err)
			}
		}
	}

	m.logger.Info("payment-hold run complete",
		"scanned", result.Scanned, "expired", result.Expired,
		"skipped", result.Skipped, "errors", result.Errors)
	m.recordRun(ctx, started, result, nil)
	return result, nil
}

func (m *Monitor) cancellationReason() string {
	return fmt.Sprintf("expired for lack of deposit payment (%d min)", int(m.hold.Minutes()))
}

func (m *Monitor) recordRun(ctx context.Context, started time.Time, result Result, runErr error) {
	status := "success"
	errMsg := ""
	if runErr != nil {
		status = "error"
		errMsg = runErr.Error()
	}
	m.metrics.ObserveRun(runlog.JobPaymentHolds, status, time.Since(started).Seconds())

	if m.runs == nil {
		return
	}
	if err := m.runs.Record(ctx, runlog.Run{
		Job:        runlog.JobPaymentHolds,
		StartedAt:  started.UTC(),
		FinishedAt: time.Now().UTC(),
		Scanned:    result.Scanned,
		Expired:    result.Expired,
		Skipped:    result.Skipped,
		Errors:     result.Errors,
		Success:    runErr == nil,
		ErrorMsg:   errMsg,
	}); err != nil {
		m.logger.Warn("run ledger write failed", "job", runlog.JobPaymentHolds, "error", err)
	}
}
