package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/internal/appointments"
	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/internal/clinic"
	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/pkg/logging"
)

// ClinicDirectory resolves the notification preferences of a clinic.
type ClinicDirectory interface {
	GetClinic(ctx context.Context, id string) (*clinic.Clinic, error)
}

// Service emails clinic staff about automatic cancellations. One summary per
// clinic per run, never one email per appointment.
type Service struct {
	email   EmailSender
	clinics ClinicDirectory
	logger  *logging.Logger
}

// NewService creates a notification service. A nil email sender disables it.
func NewService(email EmailSender, clinics ClinicDirectory, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{email: email, clinics: clinics, logger: logger}
}

// Enabled reports whether the service can actually send anything.
func (s *Service) Enabled() bool {
	return s != nil && s.email != nil && s.clinics != nil
}

// NotifyAutoCancellations sends each affected clinic one summary of the
// appointments that were expired this run. Clinics without a notification
// email, or that opted out, are skipped.
func (s *Service) NotifyAutoCancellations(ctx context.Context, cancelled []appointments.Appointment) error {
	if !s.Enabled() || len(cancelled) == 0 {
		return nil
	}

	byClinic := make(map[string][]appointments.Appointment)
	for _, appt := range cancelled {
		byClinic[appt.ClinicID] = append(byClinic[appt.ClinicID], appt)
	}

	var errs []error
	for clinicID, appts := range byClinic {
		cl, err := s.clinics.GetClinic(ctx, clinicID)
		if err != nil {
			if errors.Is(err, clinic.ErrNotFound) {
				s.logger.Warn("cancellation summary skipped, clinic missing", "clinic_id", clinicID)
				continue
			}
			errs = append(errs, fmt.Errorf("notify: load clinic %s: %w", clinicID, err))
			continue
		}
		if cl.NotifyEmail == "" || !cl.NotifyOnAutoCancel {
			s.logger.Debug("cancellation summary skipped, notifications off", "clinic_id", clinicID)
			continue
		}

		msg := EmailMessage{
			To:      cl.NotifyEmail,
			ToName:  cl.Name,
			Subject: fmt.Sprintf("[Gendei] %d agendamento(s) cancelado(s) por falta de pagamento", len(appts)),
			Body:    summaryBody(cl, appts),
		}
		if err := s.email.Send(ctx, msg); err != nil {
			errs = append(errs, fmt.Errorf("notify: clinic %s: %w", clinicID, err))
			continue
		}
		s.logger.Info("cancellation summary sent",
			"clinic_id", clinicID, "to", cl.NotifyEmail, "count", len(appts))
	}
	return errors.Join(errs...)
}

func summaryBody(cl *clinic.Clinic, appts []appointments.Appointment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Olá, %s!\n\n", cl.Name)
	fmt.Fprintf(&b, "Os agendamentos abaixo foram cancelados automaticamente porque o sinal não foi pago dentro do prazo:\n\n")
	for _, a := range appts {
		line := fmt.Sprintf("- %s, %s às %s", a.PatientName, formatDateBR(a.Date), a.Time)
		if a.ServiceName != "" {
			line += fmt.Sprintf(" (%s)", a.ServiceName)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString("\nOs horários já estão liberados para novos agendamentos.\n")
	return b.String()
}

func formatDateBR(date string) string {
	if t, err := time.Parse(appointments.DateLayout, date); err == nil {
		return t.Format("02/01/2006")
	}
	return date
}
