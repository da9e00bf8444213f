package appointments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/pkg/logging"
)

const (
	dateIndex   = "date-index"
	statusIndex = "status-index"
)

// ErrNotFound indicates the requested appointment does not exist.
var ErrNotFound = errors.New("appointments: not found")

// ErrConditionFailed indicates a conditional write lost the race: the flag was
// already set or the status moved on. Callers treat it as an idempotent no-op.
var ErrConditionFailed = errors.New("appointments: condition failed")

// DynamoAPI is the subset of the DynamoDB client the store uses.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// ReminderKind selects which idempotency flag a reminder write targets.
type ReminderKind string

const (
	Reminder24h ReminderKind = "24h"
	Reminder2h  ReminderKind = "2h"
)

// ParseReminderKind validates a wire-level reminder type.
func ParseReminderKind(raw string) (ReminderKind, error) {
	switch ReminderKind(raw) {
	case Reminder24h:
		return Reminder24h, nil
	case Reminder2h:
		return Reminder2h, nil
	}
	return "", fmt.Errorf("appointments: invalid reminder kind %q", raw)
}

// InvalidDoc is a record that failed the decode-boundary validation and must
// be quarantined instead of processed.
type InvalidDoc struct {
	ID     string
	Issues []string
	Raw    []byte
}

// Store reads and mutates appointment documents in DynamoDB.
type Store struct {
	client DynamoAPI
	table  string
	logger *logging.Logger
}

// NewStore builds a store backed by the provided DynamoDB client.
func NewStore(client DynamoAPI, table string, logger *logging.Logger) *Store {
	if client == nil {
		panic("appointments: dynamodb client cannot be nil")
	}
	if table == "" {
		panic("appointments: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{client: client, table: table, logger: logger}
}

// Table returns the backing table name, used when building transact entries.
func (s *Store) Table() string { return s.table }

// GetByID fetches a single appointment.
func (s *Store) GetByID(ctx context.Context, id string) (*Appointment, error) {
	if id == "" {
		return nil, errors.New("appointments: id required")
	}
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("appointments: get %s: %w", id, err)
	}
	if out.Item == nil {
		return nil, ErrNotFound
	}
	var appt Appointment
	if err := attributevalue.UnmarshalMap(out.Item, &appt); err != nil {
		return nil, fmt.Errorf("appointments: decode %s: %w", id, err)
	}
	return &appt, nil
}

// QueryByDates returns every appointment on the given calendar dates whose
// status is in the allowed set. Documents that fail validation are returned
// separately so the caller can quarantine them.
func (s *Store) QueryByDates(ctx context.Context, dates []string, statuses []Status) ([]Appointment, []InvalidDoc, error) {
	var (
		valid   []Appointment
		invalid []InvalidDoc
	)
	for _, date := range dates {
		var startKey map[string]types.AttributeValue
		for {
			out, err := s.client.Query(ctx, &dynamodb.QueryInput{
				TableName:                 aws.String(s.table),
				IndexName:                 aws.String(dateIndex),
				KeyConditionExpression:    aws.String("#date = :date"),
				FilterExpression:          aws.String(statusFilterExpression(statuses)),
				ExpressionAttributeNames:  map[string]string{"#date": "date", "#status": "status"},
				ExpressionAttributeValues: statusFilterValues(date, statuses),
				ExclusiveStartKey:         startKey,
			})
			if err != nil {
				return nil, nil, fmt.Errorf("appointments: query date %s: %w", date, err)
			}
			v, iv := s.decodeItems(out.Items)
			valid = append(valid, v...)
			invalid = append(invalid, iv...)
			if out.LastEvaluatedKey == nil {
				break
			}
			startKey = out.LastEvaluatedKey
		}
	}
	return valid, invalid, nil
}

// QueryPending returns every pending appointment across all clinics,
// paginating the status index until exhausted.
func (s *Store) QueryPending(ctx context.Context) ([]Appointment, []InvalidDoc, error) {
	var (
		valid    []Appointment
		invalid  []InvalidDoc
		startKey map[string]types.AttributeValue
	)
	for {
		out, err := s.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                aws.String(s.table),
			IndexName:                aws.String(statusIndex),
			KeyConditionExpression:   aws.String("#status = :status"),
			ExpressionAttributeNames: map[string]string{"#status": "status"},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":status": &types.AttributeValueMemberS{Value: string(StatusPending)},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("appointments: query pending: %w", err)
		}
		v, iv := s.decodeItems(out.Items)
		valid = append(valid, v...)
		invalid = append(invalid, iv...)
		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	return valid, invalid, nil
}

// MarkReminderSent flips the sent flag for the given kind. The write is
// conditional on the flag still being false and the status still being
// reminder-eligible, so an overlapping run's duplicate becomes
// ErrConditionFailed instead of a second send. The 24h kind also moves the
// appointment to awaiting_confirmation: that reminder doubles as the request
// for presence confirmation.
func (s *Store) MarkReminderSent(ctx context.Context, id string, kind ReminderKind, now time.Time) error {
	if id == "" {
		return errors.New("appointments: id required")
	}

	flag := "reminder24hSent"
	sentAt := "reminder24hSentAt"
	update := "SET #flag = :true, #sentAt = :now, #status = :awaiting, updatedAt = :now"
	if kind == Reminder2h {
		flag = "reminder2hSent"
		sentAt = "reminder2hSentAt"
		update = "SET #flag = :true, #sentAt = :now, updatedAt = :now"
	}

	values := map[string]types.AttributeValue{
		":true":      &types.AttributeValueMemberBOOL{Value: true},
		":false":     &types.AttributeValueMemberBOOL{Value: false},
		":now":       &types.AttributeValueMemberS{Value: now.UTC().Format(time.RFC3339)},
		":confirmed": &types.AttributeValueMemberS{Value: string(StatusConfirmed)},
		":presence":  &types.AttributeValueMemberS{Value: string(StatusConfirmedPresence)},
	}
	if kind != Reminder2h {
		values[":awaiting"] = &types.AttributeValueMemberS{Value: string(StatusAwaitingConfirmation)}
	}

	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		UpdateExpression: aws.String(update),
		ConditionExpression: aws.String(
			"(attribute_not_exists(#flag) OR #flag = :false) AND #status IN (:confirmed, :presence)",
		),
		ExpressionAttributeNames: map[string]string{
			"#flag":   flag,
			"#sentAt": sentAt,
			"#status": "status",
		},
		ExpressionAttributeValues: values,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrConditionFailed
		}
		return fmt.Errorf("appointments: mark %s reminder sent for %s: %w", kind, id, err)
	}
	return nil
}

// CancellationItem builds the conditional transact entry that expires a
// pending appointment. The status=pending precondition makes a racing payment
// win: the cancellation silently becomes a no-op.
func (s *Store) CancellationItem(id, reason string, now time.Time) types.TransactWriteItem {
	ts := now.UTC().Format(time.RFC3339)
	return types.TransactWriteItem{
		Update: &types.Update{
			TableName: aws.String(s.table),
			Key: map[string]types.AttributeValue{
				"id": &types.AttributeValueMemberS{Value: id},
			},
			UpdateExpression:    aws.String("SET #status = :cancelled, cancellationReason = :reason, cancelledAt = :now, updatedAt = :now"),
			ConditionExpression: aws.String("#status = :pending"),
			ExpressionAttributeNames: map[string]string{
				"#status": "status",
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":cancelled": &types.AttributeValueMemberS{Value: string(StatusCancelled)},
				":pending":   &types.AttributeValueMemberS{Value: string(StatusPending)},
				":reason":    &types.AttributeValueMemberS{Value: reason},
				":now":       &types.AttributeValueMemberS{Value: ts},
			},
		},
	}
}

func (s *Store) decodeItems(items []map[string]types.AttributeValue) ([]Appointment, []InvalidDoc) {
	var (
		valid   []Appointment
		invalid []InvalidDoc
	)
	for _, item := range items {
		var appt Appointment
		if err := attributevalue.UnmarshalMap(item, &appt); err != nil {
			invalid = append(invalid, InvalidDoc{
				ID:     stringAttr(item, "id"),
				Issues: []string{fmt.Sprintf("decode: %v", err)},
				Raw:    rawJSON(item),
			})
			continue
		}
		if issues := appt.Validate(); len(issues) > 0 {
			invalid = append(invalid, InvalidDoc{ID: appt.ID, Issues: issues, Raw: rawJSON(item)})
			continue
		}
		valid = append(valid, appt)
	}
	return valid, invalid
}

func statusFilterExpression(statuses []Status) string {
	expr := "#status IN ("
	for i := range statuses {
		if i > 0 {
			expr += ", "
		}
		expr += fmt.Sprintf(":s%d", i)
	}
	return expr + ")"
}

func statusFilterValues(date string, statuses []Status) map[string]types.AttributeValue {
	values := map[string]types.AttributeValue{
		":date": &types.AttributeValueMemberS{Value: date},
	}
	for i, st := range statuses {
		values[fmt.Sprintf(":s%d", i)] = &types.AttributeValueMemberS{Value: string(st)}
	}
	return values
}

func stringAttr(item map[string]types.AttributeValue, key string) string {
	if v, ok := item[key].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func rawJSON(item map[string]types.AttributeValue) []byte {
	var doc map[string]any
	if err := attributevalue.UnmarshalMap(item, &doc); err != nil {
		return nil
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil
	}
	return data
}
