package conversation

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/pkg/logging"
)

// phoneIndexes maps the known phone-bearing fields to the GSI that serves
// them. Tried in order during the fallback scan; first match wins.
var phoneIndexes = []struct {
	field string
	index string
}{
	{field: "waUserPhone", index: "wa-user-phone-index"},
	{field: "waUserId", index: "wa-user-id-index"},
	{field: "phone", index: "phone-index"},
}

// DynamoAPI is the subset of the DynamoDB client the resolver and syncer use.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// Ref identifies a resolved conversation document.
type Ref struct {
	ClinicID string
	ID       string
}

// Resolver locates the conversation record for a clinic/phone pair. The two
// stores share no stable foreign key, so identity is resolved through phone
// variants instead.
type Resolver struct {
	client DynamoAPI
	table  string
	logger *logging.Logger
}

// NewResolver builds a resolver over the conversations table.
func NewResolver(client DynamoAPI, table string, logger *logging.Logger) *Resolver {
	if client == nil {
		panic("conversation: dynamodb client cannot be nil")
	}
	if table == "" {
		panic("conversation: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Resolver{client: client, table: table, logger: logger}
}

// Resolve returns the conversation matching any variant of the phone.
// Most conversations are keyed directly by a phone variant, so direct
// lookups run first; the indexed field queries are the fallback. A miss is
// ok=false, never an error: callers skip silently.
func (r *Resolver) Resolve(ctx context.Context, clinicID, phone string) (Ref, bool) {
	variants := PhoneVariants(phone)
	if clinicID == "" || len(variants) == 0 {
		return Ref{}, false
	}

	for _, variant := range variants {
		out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
			TableName: aws.String(r.table),
			Key: map[string]types.AttributeValue{
				"clinicId": &types.AttributeValueMemberS{Value: clinicID},
				"id":       &types.AttributeValueMemberS{Value: variant},
			},
		})
		if err != nil {
			r.logger.Warn("conversation lookup failed", "clinic_id", clinicID, "variant", variant, "error", err)
			continue
		}
		if out.Item != nil {
			return Ref{ClinicID: clinicID, ID: variant}, true
		}
	}

	for _, idx := range phoneIndexes {
		for _, variant := range variants {
			ref, ok := r.queryByField(ctx, clinicID, idx.index, idx.field, variant)
			if ok {
				return ref, true
			}
		}
	}
	return Ref{}, false
}

func (r *Resolver) queryByField(ctx context.Context, clinicID, index, field, value string) (Ref, bool) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.table),
		IndexName:              aws.String(index),
		KeyConditionExpression: aws.String("clinicId = :clinic AND #field = :value"),
		ExpressionAttributeNames: map[string]string{
			"#field": field,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":clinic": &types.AttributeValueMemberS{Value: clinicID},
			":value":  &types.AttributeValueMemberS{Value: value},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		r.logger.Warn("conversation field query failed", "clinic_id", clinicID, "field", field, "error", err)
		return Ref{}, false
	}
	if len(out.Items) == 0 {
		return Ref{}, false
	}
	id := ""
	if v, ok := out.Items[0]["id"].(*types.AttributeValueMemberS); ok {
		id = v.Value
	}
	if id == "" {
		return Ref{}, false
	}
	return Ref{ClinicID: clinicID, ID: id}, true
}
