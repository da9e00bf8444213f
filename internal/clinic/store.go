package clinic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/pkg/logging"
)

// ErrNotFound indicates the clinic does not exist.
var ErrNotFound = errors.New("clinic: not found")

// Clinic is the per-tenant record the lifecycle jobs consult before touching
// a patient-facing channel.
type Clinic struct {
	ID                string `dynamodbav:"id" json:"id"`
	Name              string `dynamodbav:"name" json:"name"`
	Vertical          string `dynamodbav:"vertical,omitempty" json:"vertical,omitempty"`
	Timezone          string `dynamodbav:"timezone,omitempty" json:"timezone,omitempty"`
	Address           string `dynamodbav:"address,omitempty" json:"address,omitempty"`
	WhatsAppConnected bool   `dynamodbav:"whatsappConnected" json:"whatsappConnected"`

	// Operator notification preferences for automatic cancellations.
	NotifyEmail        string `dynamodbav:"notifyEmail,omitempty" json:"notifyEmail,omitempty"`
	NotifyOnAutoCancel bool   `dynamodbav:"notifyOnAutoCancel,omitempty" json:"notifyOnAutoCancel,omitempty"`
}

// Location resolves the clinic timezone, falling back to the given default.
func (c *Clinic) Location(fallback *time.Location) *time.Location {
	if c == nil || c.Timezone == "" {
		return fallback
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fallback
	}
	return loc
}

// Credential holds the clinic's messaging-gateway identity.
type Credential struct {
	ClinicID      string `dynamodbav:"clinicId" json:"clinicId"`
	PhoneNumberID string `dynamodbav:"phoneNumberId" json:"phoneNumberId"`
	WabaID        string `dynamodbav:"wabaId,omitempty" json:"wabaId,omitempty"`
}

// DynamoAPI is the subset of the DynamoDB client the store uses.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// Store reads clinic and credential documents.
type Store struct {
	client           DynamoAPI
	clinicsTable     string
	credentialsTable string
	logger           *logging.Logger
}

// NewStore builds a clinic store.
func NewStore(client DynamoAPI, clinicsTable, credentialsTable string, logger *logging.Logger) *Store {
	if client == nil {
		panic("clinic: dynamodb client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{
		client:           client,
		clinicsTable:     clinicsTable,
		credentialsTable: credentialsTable,
		logger:           logger,
	}
}

// GetClinic fetches a clinic by id.
func (s *Store) GetClinic(ctx context.Context, id string) (*Clinic, error) {
	if id == "" {
		return nil, errors.New("clinic: id required")
	}
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.clinicsTable),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("clinic: get %s: %w", id, err)
	}
	if out.Item == nil {
		return nil, ErrNotFound
	}
	var c Clinic
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, fmt.Errorf("clinic: decode %s: %w", id, err)
	}
	return &c, nil
}

// GetCredential fetches the messaging credential for a clinic. A missing
// credential is (nil, nil): the clinic simply cannot be messaged, which is a
// skip for callers, not an error.
func (s *Store) GetCredential(ctx context.Context, clinicID string) (*Credential, error) {
	if clinicID == "" {
		return nil, errors.New("clinic: clinicID required")
	}
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.credentialsTable),
		Key: map[string]types.AttributeValue{
			"clinicId": &types.AttributeValueMemberS{Value: clinicID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("clinic: get credential %s: %w", clinicID, err)
	}
	if out.Item == nil {
		return nil, nil
	}
	var cred Credential
	if err := attributevalue.UnmarshalMap(out.Item, &cred); err != nil {
		return nil, fmt.Errorf("clinic: decode credential %s: %w", clinicID, err)
	}
	if cred.PhoneNumberID == "" {
		return nil, nil
	}
	return &cred, nil
}
