package appointments

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DateLayout is the calendar-date format appointments are stored with.
	DateLayout = "2006-01-02"
	// TimeLayout is the clinic-local wall-clock format.
	TimeLayout = "15:04"
)

// Status represents the lifecycle state of an appointment.
type Status string

const (
	StatusPending              Status = "pending"
	StatusConfirmed            Status = "confirmed"
	StatusAwaitingConfirmation Status = "awaiting_confirmation"
	StatusConfirmedPresence    Status = "confirmed_presence"
	StatusCompleted            Status = "completed"
	StatusCancelled            Status = "cancelled"
	StatusNoShow               Status = "no_show"
)

var knownStatuses = map[Status]bool{
	StatusPending:              true,
	StatusConfirmed:            true,
	StatusAwaitingConfirmation: true,
	StatusConfirmedPresence:    true,
	StatusCompleted:            true,
	StatusCancelled:            true,
	StatusNoShow:               true,
}

// IsTerminal reports whether the status excludes the appointment from any
// future scan.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCancelled, StatusCompleted, StatusNoShow:
		return true
	}
	return false
}

// PaymentTypeParticular marks self-pay appointments, the only type that
// requires an advance deposit ("sinal").
const PaymentTypeParticular = "particular"

// Appointment is the source-of-truth record for a booked slot. Date and Time
// are kept as the raw strings the booking flow writes so that round-trips
// never reformat them.
type Appointment struct {
	ID               string `dynamodbav:"id" json:"id"`
	ClinicID         string `dynamodbav:"clinicId" json:"clinicId"`
	PatientPhone     string `dynamodbav:"patientPhone" json:"patientPhone"`
	PatientName      string `dynamodbav:"patientName" json:"patientName"`
	ProfessionalName string `dynamodbav:"professionalName,omitempty" json:"professionalName,omitempty"`
	ServiceName      string `dynamodbav:"serviceName,omitempty" json:"serviceName,omitempty"`
	Date             string `dynamodbav:"date" json:"date"`
	Time             string `dynamodbav:"time" json:"time"`
	Status           Status `dynamodbav:"status" json:"status"`

	Reminder24hSent   bool   `dynamodbav:"reminder24hSent" json:"reminder24hSent"`
	Reminder24hSentAt string `dynamodbav:"reminder24hSentAt,omitempty" json:"reminder24hSentAt,omitempty"`
	Reminder2hSent    bool   `dynamodbav:"reminder2hSent" json:"reminder2hSent"`
	Reminder2hSentAt  string `dynamodbav:"reminder2hSentAt,omitempty" json:"reminder2hSentAt,omitempty"`

	PaymentType string `dynamodbav:"paymentType,omitempty" json:"paymentType,omitempty"`
	SignalCents int64  `dynamodbav:"signalCents,omitempty" json:"signalCents,omitempty"`
	SignalPaid  bool   `dynamodbav:"signalPaid,omitempty" json:"signalPaid,omitempty"`
	// Legacy deposit fields written by the old booking flow. Both shapes
	// must keep working.
	DepositAmount int64 `dynamodbav:"depositAmount,omitempty" json:"depositAmount,omitempty"`
	DepositPaid   bool  `dynamodbav:"depositPaid,omitempty" json:"depositPaid,omitempty"`

	CreatedAt string `dynamodbav:"createdAt,omitempty" json:"createdAt,omitempty"`
	UpdatedAt string `dynamodbav:"updatedAt,omitempty" json:"updatedAt,omitempty"`

	CancellationReason string `dynamodbav:"cancellationReason,omitempty" json:"cancellationReason,omitempty"`
	CancelledAt        string `dynamodbav:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
	ConfirmedAt        string `dynamodbav:"confirmedAt,omitempty" json:"confirmedAt,omitempty"`
	CompletedAt        string `dynamodbav:"completedAt,omitempty" json:"completedAt,omitempty"`
}

// Validate returns the list of problems that make the record unusable by the
// lifecycle jobs. An empty slice means the record is safe to process.
func (a *Appointment) Validate() []string {
	var issues []string
	if strings.TrimSpace(a.ID) == "" {
		issues = append(issues, "missing id")
	}
	if strings.TrimSpace(a.ClinicID) == "" {
		issues = append(issues, "missing clinicId")
	}
	if _, err := time.Parse(DateLayout, a.Date); err != nil {
		issues = append(issues, fmt.Sprintf("invalid date %q", a.Date))
	}
	if _, err := time.Parse(TimeLayout, a.Time); err != nil {
		issues = append(issues, fmt.Sprintf("invalid time %q", a.Time))
	}
	if !knownStatuses[a.Status] {
		issues = append(issues, fmt.Sprintf("unknown status %q", a.Status))
	}
	return issues
}

// StartsAt combines Date and Time into a clinic-local instant.
func (a *Appointment) StartsAt(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, a.Date+" "+a.Time, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("appointments: parse start of %s: %w", a.ID, err)
	}
	return t, nil
}

// NeedsDepositRelease reports whether the appointment is blocked on an unpaid
// advance payment. Covers both the current signal fields and the legacy
// deposit fields.
func (a *Appointment) NeedsDepositRelease() bool {
	if a.PaymentType == PaymentTypeParticular && a.SignalCents > 0 && !a.SignalPaid {
		return true
	}
	if a.DepositAmount > 0 && !a.DepositPaid {
		return true
	}
	return false
}

// HoldAnchor returns the instant the payment-hold clock starts from:
// createdAt, falling back to updatedAt when createdAt is unusable.
func (a *Appointment) HoldAnchor() (time.Time, bool) {
	if t, err := parseTimestamp(a.CreatedAt); err == nil {
		return t, true
	}
	if t, err := parseTimestamp(a.UpdatedAt); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// FirstName extracts the leading name token used in reminder messages.
func (a *Appointment) FirstName() string {
	name := strings.TrimSpace(a.PatientName)
	if name == "" {
		return ""
	}
	if i := strings.IndexByte(name, ' '); i > 0 {
		return name[:i]
	}
	return name
}

func parseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("appointments: empty timestamp")
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("appointments: unparsable timestamp %q", value)
}
