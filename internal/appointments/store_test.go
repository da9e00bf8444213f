package appointments

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/pkg/logging"
)

type mockDynamo struct {
	getOutput    *dynamodb.GetItemOutput
	getErr       error
	queryInputs  []*dynamodb.QueryInput
	queryOutputs []*dynamodb.QueryOutput
	queryErr     error
	updateInputs []*dynamodb.UpdateItemInput
	updateErr    error
	txInputs     []*dynamodb.TransactWriteItemsInput
	txErrs       []error
}

func (m *mockDynamo) GetItem(ctx context.Context, input *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.getOutput == nil {
		return &dynamodb.GetItemOutput{}, nil
	}
	return m.getOutput, nil
}

func (m *mockDynamo) Query(ctx context.Context, input *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	m.queryInputs = append(m.queryInputs, input)
	if len(m.queryOutputs) == 0 {
		return &dynamodb.QueryOutput{}, nil
	}
	out := m.queryOutputs[0]
	m.queryOutputs = m.queryOutputs[1:]
	return out, nil
}

func (m *mockDynamo) UpdateItem(ctx context.Context, input *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	m.updateInputs = append(m.updateInputs, input)
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

func (m *mockDynamo) TransactWriteItems(ctx context.Context, input *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	m.txInputs = append(m.txInputs, input)
	if len(m.txErrs) > 0 {
		err := m.txErrs[0]
		m.txErrs = m.txErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}

func apptItem(id, date, status string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id":       &types.AttributeValueMemberS{Value: id},
		"clinicId": &types.AttributeValueMemberS{Value: "cl-1"},
		"date":     &types.AttributeValueMemberS{Value: date},
		"time":     &types.AttributeValueMemberS{Value: "14:00"},
		"status":   &types.AttributeValueMemberS{Value: status},
	}
}

func TestStore_GetByID_NotFound(t *testing.T) {
	store := NewStore(&mockDynamo{getOutput: &dynamodb.GetItemOutput{}}, "appointments", logging.Default())
	_, err := store.GetByID(context.Background(), "apt-404")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_QueryByDates_PaginatesAndQuarantines(t *testing.T) {
	mock := &mockDynamo{
		queryOutputs: []*dynamodb.QueryOutput{
			{
				Items: []map[string]types.AttributeValue{
					apptItem("apt-1", "2026-08-30", "confirmed"),
				},
				LastEvaluatedKey: map[string]types.AttributeValue{
					"id": &types.AttributeValueMemberS{Value: "apt-1"},
				},
			},
			{
				Items: []map[string]types.AttributeValue{
					apptItem("apt-2", "2026-08-30", "confirmed_presence"),
					{
						"id":     &types.AttributeValueMemberS{Value: "apt-bad"},
						"status": &types.AttributeValueMemberS{Value: "confirmed"},
					},
				},
			},
		},
	}
	store := NewStore(mock, "appointments", logging.Default())

	valid, invalid, err := store.QueryByDates(context.Background(),
		[]string{"2026-08-30"}, []Status{StatusConfirmed, StatusConfirmedPresence})
	if err != nil {
		t.Fatalf("QueryByDates returned error: %v", err)
	}
	if len(valid) != 2 {
		t.Fatalf("expected 2 valid appointments, got %d", len(valid))
	}
	if len(invalid) != 1 || invalid[0].ID != "apt-bad" {
		t.Fatalf("expected apt-bad quarantined, got %#v", invalid)
	}
	if len(mock.queryInputs) != 2 {
		t.Fatalf("expected pagination to issue 2 queries, got %d", len(mock.queryInputs))
	}
	filter := *mock.queryInputs[0].FilterExpression
	if !strings.Contains(filter, "#status IN") {
		t.Fatalf("expected status filter, got %q", filter)
	}
}

func TestStore_MarkReminderSent_24hTransitionsStatus(t *testing.T) {
	mock := &mockDynamo{}
	store := NewStore(mock, "appointments", logging.Default())
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	if err := store.MarkReminderSent(context.Background(), "apt-1", Reminder24h, now); err != nil {
		t.Fatalf("MarkReminderSent returned error: %v", err)
	}
	if len(mock.updateInputs) != 1 {
		t.Fatalf("expected 1 update, got %d", len(mock.updateInputs))
	}
	update := mock.updateInputs[0]
	expr := *update.UpdateExpression
	if !strings.Contains(expr, "#status = :awaiting") {
		t.Fatalf("expected 24h update to transition status, got %q", expr)
	}
	cond := *update.ConditionExpression
	if !strings.Contains(cond, "#flag = :false") || !strings.Contains(cond, "#status IN") {
		t.Fatalf("expected flag+status condition, got %q", cond)
	}
	if update.ExpressionAttributeNames["#flag"] != "reminder24hSent" {
		t.Fatalf("expected 24h flag, got %v", update.ExpressionAttributeNames)
	}
}

func TestStore_MarkReminderSent_2hLeavesStatusAlone(t *testing.T) {
	mock := &mockDynamo{}
	store := NewStore(mock, "appointments", logging.Default())

	if err := store.MarkReminderSent(context.Background(), "apt-1", Reminder2h, time.Now()); err != nil {
		t.Fatalf("MarkReminderSent returned error: %v", err)
	}
	update := mock.updateInputs[0]
	if strings.Contains(*update.UpdateExpression, ":awaiting") {
		t.Fatalf("2h reminder must not transition status: %q", *update.UpdateExpression)
	}
	if update.ExpressionAttributeNames["#flag"] != "reminder2hSent" {
		t.Fatalf("expected 2h flag, got %v", update.ExpressionAttributeNames)
	}
}

func TestStore_MarkReminderSent_LostRaceIsSentinel(t *testing.T) {
	mock := &mockDynamo{updateErr: &types.ConditionalCheckFailedException{}}
	store := NewStore(mock, "appointments", logging.Default())

	err := store.MarkReminderSent(context.Background(), "apt-1", Reminder24h, time.Now())
	if !errors.Is(err, ErrConditionFailed) {
		t.Fatalf("expected ErrConditionFailed, got %v", err)
	}
}

func TestStore_CancellationItem(t *testing.T) {
	store := NewStore(&mockDynamo{}, "appointments", logging.Default())
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	item := store.CancellationItem("apt-9", "expired for lack of deposit payment (15 min)", now)
	if item.Update == nil {
		t.Fatal("expected an update entry")
	}
	if *item.Update.ConditionExpression != "#status = :pending" {
		t.Fatalf("expected pending precondition, got %q", *item.Update.ConditionExpression)
	}
	reason := item.Update.ExpressionAttributeValues[":reason"].(*types.AttributeValueMemberS).Value
	if !strings.Contains(reason, "15") {
		t.Fatalf("expected hold minutes in reason, got %q", reason)
	}
}
