package reminders

import (
	"context"
	"errors"
	"time"

	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/internal/appointments"
	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/internal/clinic"
	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/internal/conversation"
	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/internal/gateway"
	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/internal/quarantine"
)

// fakeStore emulates the appointment store, including the conditional
// semantics of MarkReminderSent.
type fakeStore struct {
	appts    map[string]*appointments.Appointment
	invalid  []appointments.InvalidDoc
	queryErr error
	markErr  error
}

func newFakeStore(appts ...*appointments.Appointment) *fakeStore {
	m := make(map[string]*appointments.Appointment, len(appts))
	for _, a := range appts {
		m[a.ID] = a
	}
	return &fakeStore{appts: m}
}

func (f *fakeStore) QueryByDates(ctx context.Context, dates []string, statuses []appointments.Status) ([]appointments.Appointment, []appointments.InvalidDoc, error) {
	if f.queryErr != nil {
		return nil, nil, f.queryErr
	}
	dateSet := map[string]bool{}
	for _, d := range dates {
		dateSet[d] = true
	}
	statusSet := map[appointments.Status]bool{}
	for _, s := range statuses {
		statusSet[s] = true
	}
	var out []appointments.Appointment
	for _, a := range f.appts {
		if dateSet[a.Date] && statusSet[a.Status] {
			out = append(out, *a)
		}
	}
	return out, f.invalid, nil
}

func (f *fakeStore) GetByID(ctx context.Context, id string) (*appointments.Appointment, error) {
	if a, ok := f.appts[id]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, appointments.ErrNotFound
}

func (f *fakeStore) MarkReminderSent(ctx context.Context, id string, kind appointments.ReminderKind, now time.Time) error {
	if f.markErr != nil {
		return f.markErr
	}
	a, ok := f.appts[id]
	if !ok {
		return appointments.ErrNotFound
	}
	eligible := a.Status == appointments.StatusConfirmed || a.Status == appointments.StatusConfirmedPresence
	if kind == appointments.Reminder24h {
		if a.Reminder24hSent || !eligible {
			return appointments.ErrConditionFailed
		}
		a.Reminder24hSent = true
		a.Reminder24hSentAt = now.UTC().Format(time.RFC3339)
		a.Status = appointments.StatusAwaitingConfirmation
		return nil
	}
	if a.Reminder2hSent || !eligible {
		return appointments.ErrConditionFailed
	}
	a.Reminder2hSent = true
	a.Reminder2hSentAt = now.UTC().Format(time.RFC3339)
	return nil
}

type fakeClinics struct {
	clinics map[string]*clinic.Clinic
	creds   map[string]*clinic.Credential
}

func (f *fakeClinics) GetClinic(ctx context.Context, id string) (*clinic.Clinic, error) {
	if c, ok := f.clinics[id]; ok {
		return c, nil
	}
	return nil, clinic.ErrNotFound
}

func (f *fakeClinics) GetCredential(ctx context.Context, clinicID string) (*clinic.Credential, error) {
	return f.creds[clinicID], nil
}

func connectedClinics(clinicID string) *fakeClinics {
	return &fakeClinics{
		clinics: map[string]*clinic.Clinic{
			clinicID: {
				ID: clinicID, Name: "Clínica Viva", Vertical: "estetica",
				Address: "Av. Paulista, 1000", WhatsAppConnected: true,
			},
		},
		creds: map[string]*clinic.Credential{
			clinicID: {ClinicID: clinicID, PhoneNumberID: "pn-1"},
		},
	}
}

var errBoom = errors.New("boom")

type fakeSender struct {
	msgs   []gateway.TextMessage
	err    error
	failTo string
}

func (f *fakeSender) SendText(ctx context.Context, msg gateway.TextMessage) error {
	if f.err != nil {
		return f.err
	}
	if f.failTo != "" && msg.To == f.failTo {
		return errBoom
	}
	f.msgs = append(f.msgs, msg)
	return nil
}

type fakeSyncer struct {
	snaps []conversation.Snapshot
}

func (f *fakeSyncer) Sync(ctx context.Context, clinicID string, snap conversation.Snapshot) {
	f.snaps = append(f.snaps, snap)
}

type fakeQuarantine struct {
	recs []quarantine.Record
}

func (f *fakeQuarantine) Add(ctx context.Context, rec quarantine.Record) error {
	f.recs = append(f.recs, rec)
	return nil
}
