package clinic

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/pkg/logging"
)

type mockDynamo struct {
	items map[string]map[string]types.AttributeValue // table -> item
	err   error
}

func (m *mockDynamo) GetItem(ctx context.Context, input *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	if item, ok := m.items[*input.TableName]; ok {
		return &dynamodb.GetItemOutput{Item: item}, nil
	}
	return &dynamodb.GetItemOutput{}, nil
}

func TestStore_GetClinic(t *testing.T) {
	mock := &mockDynamo{items: map[string]map[string]types.AttributeValue{
		"clinics": {
			"id":                &types.AttributeValueMemberS{Value: "cl-1"},
			"name":              &types.AttributeValueMemberS{Value: "Clínica Viva"},
			"vertical":          &types.AttributeValueMemberS{Value: "estetica"},
			"whatsappConnected": &types.AttributeValueMemberBOOL{Value: true},
		},
	}}
	store := NewStore(mock, "clinics", "clinic_credentials", logging.Default())

	c, err := store.GetClinic(context.Background(), "cl-1")
	if err != nil {
		t.Fatalf("GetClinic returned error: %v", err)
	}
	if c.Name != "Clínica Viva" || !c.WhatsAppConnected {
		t.Fatalf("unexpected clinic %#v", c)
	}
}

func TestStore_GetClinic_NotFound(t *testing.T) {
	store := NewStore(&mockDynamo{}, "clinics", "clinic_credentials", logging.Default())
	_, err := store.GetClinic(context.Background(), "cl-404")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_GetCredential_MissingIsNilNil(t *testing.T) {
	store := NewStore(&mockDynamo{}, "clinics", "clinic_credentials", logging.Default())
	cred, err := store.GetCredential(context.Background(), "cl-1")
	if err != nil {
		t.Fatalf("expected nil error for missing credential, got %v", err)
	}
	if cred != nil {
		t.Fatalf("expected nil credential, got %#v", cred)
	}
}

func TestStore_GetCredential_EmptyPhoneNumberIDIsMissing(t *testing.T) {
	mock := &mockDynamo{items: map[string]map[string]types.AttributeValue{
		"clinic_credentials": {
			"clinicId": &types.AttributeValueMemberS{Value: "cl-1"},
		},
	}}
	store := NewStore(mock, "clinics", "clinic_credentials", logging.Default())
	cred, err := store.GetCredential(context.Background(), "cl-1")
	if err != nil || cred != nil {
		t.Fatalf("expected (nil, nil), got (%#v, %v)", cred, err)
	}
}

func TestClinic_LocationFallback(t *testing.T) {
	sp, _ := time.LoadLocation("America/Sao_Paulo")

	c := &Clinic{Timezone: "America/Fortaleza"}
	if c.Location(sp).String() != "America/Fortaleza" {
		t.Fatalf("expected clinic timezone, got %s", c.Location(sp))
	}

	c = &Clinic{Timezone: "Not/AZone"}
	if c.Location(sp) != sp {
		t.Fatal("expected fallback for bad timezone")
	}

	var nilClinic *Clinic
	if nilClinic.Location(sp) != sp {
		t.Fatal("expected fallback for nil clinic")
	}
}
