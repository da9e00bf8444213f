package reminders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/internal/appointments"
	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/internal/clinic"
	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/internal/conversation"
	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/internal/gateway"
	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/pkg/logging"
)

// ClinicDirectory resolves clinics and their messaging credentials.
type ClinicDirectory interface {
	GetClinic(ctx context.Context, id string) (*clinic.Clinic, error)
	GetCredential(ctx context.Context, clinicID string) (*clinic.Credential, error)
}

// Messenger posts one text to the messaging gateway.
type Messenger interface {
	SendText(ctx context.Context, msg gateway.TextMessage) error
}

// ReminderMarker flips the idempotency flag after a successful send.
type ReminderMarker interface {
	MarkReminderSent(ctx context.Context, id string, kind appointments.ReminderKind, now time.Time) error
}

// ContextSyncer pushes the updated snapshot onto the conversation record.
type ContextSyncer interface {
	Sync(ctx context.Context, clinicID string, snap conversation.Snapshot)
}

// Leaser guards one in-flight mutation per appointment and operation kind.
type Leaser interface {
	Acquire(ctx context.Context, key string) bool
	Release(ctx context.Context, key string)
}

// Dispatcher sends one reminder end to end: clinic gate, credential gate,
// localized message, gateway call, conditional flag write, context sync.
type Dispatcher struct {
	clinics ClinicDirectory
	sender  Messenger
	marker  ReminderMarker
	syncer  ContextSyncer
	leases  Leaser
	terms   clinic.Terminology
	loc     *time.Location
	logger  *logging.Logger
}

// NewDispatcher wires a dispatcher. syncer and leases may be nil.
func NewDispatcher(clinics ClinicDirectory, sender Messenger, marker ReminderMarker, syncer ContextSyncer, leases Leaser, terms clinic.Terminology, loc *time.Location, logger *logging.Logger) *Dispatcher {
	if clinics == nil || sender == nil || marker == nil {
		panic("reminders: clinics, sender and marker are required")
	}
	if terms == nil {
		terms = clinic.DefaultTerminology()
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{
		clinics: clinics,
		sender:  sender,
		marker:  marker,
		syncer:  syncer,
		leases:  leases,
		terms:   terms,
		loc:     loc,
		logger:  logger,
	}
}

// Send dispatches one reminder. Returns (false, nil) on a legitimate skip:
// clinic not messaging-connected, credential missing, or another run already
// sent this reminder. An error means the send failed and the appointment
// stays eligible for the next run, since no flag was written.
func (d *Dispatcher) Send(ctx context.Context, appt *appointments.Appointment, kind appointments.ReminderKind, now time.Time) (bool, error) {
	cl, err := d.clinics.GetClinic(ctx, appt.ClinicID)
	if err != nil {
		if errors.Is(err, clinic.ErrNotFound) {
			d.logger.Warn("reminder skipped, clinic missing", "clinic_id", appt.ClinicID, "appointment_id", appt.ID)
			return false, nil
		}
		return false, fmt.Errorf("reminders: load clinic %s: %w", appt.ClinicID, err)
	}
	if !cl.WhatsAppConnected {
		d.logger.Debug("reminder skipped, clinic not connected", "clinic_id", cl.ID, "appointment_id", appt.ID)
		return false, nil
	}

	cred, err := d.clinics.GetCredential(ctx, cl.ID)
	if err != nil {
		return false, fmt.Errorf("reminders: load credential %s: %w", cl.ID, err)
	}
	if cred == nil {
		d.logger.Debug("reminder skipped, no messaging credential", "clinic_id", cl.ID, "appointment_id", appt.ID)
		return false, nil
	}

	leaseKey := fmt.Sprintf("reminder:%s:%s", kind, appt.ID)
	if d.leases != nil && !d.leases.Acquire(ctx, leaseKey) {
		d.logger.Info("reminder skipped, lease held elsewhere", "appointment_id", appt.ID, "kind", kind)
		return false, nil
	}

	text := d.buildMessage(appt, cl, kind)
	err = d.sender.SendText(ctx, gateway.TextMessage{
		ClinicID:      cl.ID,
		PhoneNumberID: cred.PhoneNumberID,
		To:            appt.PatientPhone,
		Text:          text,
	})
	if err != nil {
		if d.leases != nil {
			d.leases.Release(ctx, leaseKey)
		}
		return false, fmt.Errorf("reminders: send %s reminder for %s: %w", kind, appt.ID, err)
	}

	if err := d.marker.MarkReminderSent(ctx, appt.ID, kind, now); err != nil {
		if errors.Is(err, appointments.ErrConditionFailed) {
			// Lost the race: another run sent first. The patient may
			// have received the message twice; the flag is already
			// true either way.
			d.logger.Warn("reminder flag already set by concurrent run", "appointment_id", appt.ID, "kind", kind)
			return false, nil
		}
		// Message is out but the flag write failed, so the next run
		// will send again. The at-least-once gap lives here.
		return false, fmt.Errorf("reminders: mark %s sent for %s: %w", kind, appt.ID, err)
	}

	if d.syncer != nil {
		updated := *appt
		if kind == appointments.Reminder24h {
			updated.Reminder24hSent = true
			updated.Status = appointments.StatusAwaitingConfirmation
		} else {
			updated.Reminder2hSent = true
		}
		d.syncer.Sync(ctx, cl.ID, conversation.SnapshotOf(&updated, now))
	}

	d.logger.Info("reminder sent",
		"appointment_id", appt.ID, "clinic_id", cl.ID, "kind", kind, "to", appt.PatientPhone)
	return true, nil
}

var weekdaysPTBR = map[time.Weekday]string{
	time.Sunday:    "domingo",
	time.Monday:    "segunda-feira",
	time.Tuesday:   "terça-feira",
	time.Wednesday: "quarta-feira",
	time.Thursday:  "quinta-feira",
	time.Friday:    "sexta-feira",
	time.Saturday:  "sábado",
}

func (d *Dispatcher) buildMessage(appt *appointments.Appointment, cl *clinic.Clinic, kind appointments.ReminderKind) string {
	noun := d.terms.AppointmentNoun(cl.Vertical)
	loc := cl.Location(d.loc)

	weekday := ""
	dateLabel := appt.Date
	if startsAt, err := appt.StartsAt(loc); err == nil {
		weekday = weekdaysPTBR[startsAt.Weekday()]
		dateLabel = startsAt.Format("02/01")
	}

	var b strings.Builder
	if first := appt.FirstName(); first != "" {
		fmt.Fprintf(&b, "Olá, %s! ", first)
	} else {
		b.WriteString("Olá! ")
	}

	if kind == appointments.Reminder24h {
		fmt.Fprintf(&b, "Lembrete: sua %s está marcada para amanhã, %s (%s), às %s", noun, weekday, dateLabel, appt.Time)
	} else {
		fmt.Fprintf(&b, "Sua %s é hoje às %s", noun, appt.Time)
	}
	if appt.ProfessionalName != "" {
		fmt.Fprintf(&b, ", com %s", appt.ProfessionalName)
	}
	b.WriteString(".")

	if cl.Address != "" {
		fmt.Fprintf(&b, " Endereço: %s.", cl.Address)
	}
	if kind == appointments.Reminder24h {
		b.WriteString(" Por favor, responda SIM para confirmar sua presença.")
	}
	return b.String()
}
