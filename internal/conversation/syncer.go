package conversation

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/internal/appointments"
	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/pkg/logging"
)

// Snapshot is the denormalized current-appointment view written onto a
// conversation document. It is derived cache, never source of truth.
type Snapshot struct {
	AppointmentID    string `dynamodbav:"appointmentId" json:"appointmentId"`
	Status           string `dynamodbav:"status" json:"status"`
	Date             string `dynamodbav:"date" json:"date"`
	Time             string `dynamodbav:"time" json:"time"`
	PatientPhone     string `dynamodbav:"patientPhone" json:"patientPhone"`
	PatientName      string `dynamodbav:"patientName" json:"patientName"`
	ProfessionalName string `dynamodbav:"professionalName,omitempty" json:"professionalName,omitempty"`
	ServiceName      string `dynamodbav:"serviceName,omitempty" json:"serviceName,omitempty"`
	UpdatedAt        string `dynamodbav:"updatedAt" json:"updatedAt"`
}

// SnapshotOf derives the conversation snapshot from an appointment.
func SnapshotOf(appt *appointments.Appointment, now time.Time) Snapshot {
	return Snapshot{
		AppointmentID:    appt.ID,
		Status:           string(appt.Status),
		Date:             appt.Date,
		Time:             appt.Time,
		PatientPhone:     appt.PatientPhone,
		PatientName:      appt.PatientName,
		ProfessionalName: appt.ProfessionalName,
		ServiceName:      appt.ServiceName,
		UpdatedAt:        now.UTC().Format(time.RFC3339),
	}
}

// Syncer pushes appointment snapshots onto conversation documents.
// Everything about it is best-effort: the appointment mutation has already
// committed by the time Sync runs, so no failure here may reach the caller.
type Syncer struct {
	client   DynamoAPI
	table    string
	resolver *Resolver
	logger   *logging.Logger
}

// NewSyncer builds a syncer over the conversations table.
func NewSyncer(client DynamoAPI, table string, resolver *Resolver, logger *logging.Logger) *Syncer {
	if client == nil {
		panic("conversation: dynamodb client cannot be nil")
	}
	if resolver == nil {
		panic("conversation: resolver cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Syncer{client: client, table: table, resolver: resolver, logger: logger}
}

// Sync merge-writes the snapshot onto the conversation matching the
// appointment's phone. A resolution miss or write failure is logged and
// swallowed.
func (s *Syncer) Sync(ctx context.Context, clinicID string, snap Snapshot) {
	ref, ok := s.resolver.Resolve(ctx, clinicID, snap.PatientPhone)
	if !ok {
		s.logger.Debug("context sync skipped, no conversation",
			"clinic_id", clinicID, "appointment_id", snap.AppointmentID)
		return
	}

	attr, err := attributevalue.Marshal(snap)
	if err != nil {
		s.logger.Error("context sync marshal failed",
			"clinic_id", clinicID, "appointment_id", snap.AppointmentID, "error", err)
		return
	}

	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"clinicId": &types.AttributeValueMemberS{Value: ref.ClinicID},
			"id":       &types.AttributeValueMemberS{Value: ref.ID},
		},
		UpdateExpression: aws.String("SET currentAppointment = :snap, updatedAt = :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":snap": attr,
			":now":  &types.AttributeValueMemberS{Value: snap.UpdatedAt},
		},
	})
	if err != nil {
		s.logger.Error("context sync write failed",
			"clinic_id", clinicID, "conversation_id", ref.ID,
			"appointment_id", snap.AppointmentID, "error", err)
		return
	}

	s.logger.Info("context sync applied",
		"clinic_id", clinicID, "conversation_id", ref.ID,
		"appointment_id", snap.AppointmentID, "status", snap.Status)
}
