package reminders

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/internal/appointments"
	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/internal/quarantine"
	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/pkg/logging"
)

const scanSource = "reminder-scan"

// scanStatuses are the lifecycle states still eligible for reminders. An
// appointment that moved to awaiting_confirmation already got its 24h
// reminder; terminal states are out entirely.
var scanStatuses = []appointments.Status{
	appointments.StatusConfirmed,
	appointments.StatusConfirmedPresence,
}

// AppointmentSource is the slice of the appointment store the scanner reads.
type AppointmentSource interface {
	QueryByDates(ctx context.Context, dates []string, statuses []appointments.Status) ([]appointments.Appointment, []appointments.InvalidDoc, error)
}

// Quarantiner records malformed documents. Best-effort.
type Quarantiner interface {
	Add(ctx context.Context, rec quarantine.Record) error
}

// Candidates is the outcome of one window scan.
type Candidates struct {
	Due24h []appointments.Appointment
	Due2h  []appointments.Appointment
	// Quarantined counts documents dropped at the decode boundary. They
	// surface in the run's error counter.
	Quarantined int
}

// Scanner finds appointments entering a reminder window.
type Scanner struct {
	store      AppointmentSource
	quarantine Quarantiner
	loc        *time.Location
	logger     *logging.Logger
}

// NewScanner builds a scanner. loc is the zone appointment date+time strings
// are interpreted in when the clinic has no zone of its own.
func NewScanner(store AppointmentSource, q Quarantiner, loc *time.Location, logger *logging.Logger) *Scanner {
	if store == nil {
		panic("reminders: appointment source cannot be nil")
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Scanner{store: store, quarantine: q, loc: loc, logger: logger}
}

// Scan queries the union of both window date ranges, then narrows in memory:
// exact datetime inside the precise window, and the matching sent-flag still
// false. The coarse date query over-fetches on purpose; the precise filter
// is what prevents premature firing.
func (s *Scanner) Scan(ctx context.Context, now time.Time) (Candidates, error) {
	w24, w2 := Windows(now)
	dates := unionDates(s.loc, w24, w2)

	appts, invalid, err := s.store.QueryByDates(ctx, dates, scanStatuses)
	if err != nil {
		return Candidates{}, fmt.Errorf("reminders: scan windows: %w", err)
	}

	out := Candidates{Quarantined: len(invalid)}
	for _, doc := range invalid {
		s.logger.Warn("quarantining malformed appointment", "id", doc.ID, "issues", doc.Issues)
		if s.quarantine != nil {
			if qErr := s.quarantine.Add(ctx, quarantine.Record{
				DocID:  doc.ID,
				Source: scanSource,
				Issues: doc.Issues,
				Raw:    doc.Raw,
			}); qErr != nil {
				s.logger.Error("quarantine write failed", "id", doc.ID, "error", qErr)
			}
		}
	}

	for _, appt := range appts {
		startsAt, err := appt.StartsAt(s.loc)
		if err != nil {
			// Validate() passed, so this should not happen; treat
			// like a malformed document anyway.
			out.Quarantined++
			s.logger.Warn("unparsable appointment datetime", "id", appt.ID, "error", err)
			if s.quarantine != nil {
				raw, _ := json.Marshal(appt)
				if qErr := s.quarantine.Add(ctx, quarantine.Record{
					DocID:  appt.ID,
					Source: scanSource,
					Issues: []string{fmt.Sprintf("unparsable start datetime: %v", err)},
					Raw:    raw,
				}); qErr != nil {
					s.logger.Error("quarantine write failed", "id", appt.ID, "error", qErr)
				}
			}
			continue
		}
		if w24.Contains(startsAt) && !appt.Reminder24hSent {
			out.Due24h = append(out.Due24h, appt)
		}
		if w2.Contains(startsAt) && !appt.Reminder2hSent {
			out.Due2h = append(out.Due2h, appt)
		}
	}

	s.logger.Info("reminder scan complete",
		"dates", len(dates),
		"due_24h", len(out.Due24h),
		"due_2h", len(out.Due2h),
		"quarantined", out.Quarantined,
	)
	return out, nil
}
