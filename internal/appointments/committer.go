package appointments

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/pkg/logging"
)

// DefaultBatchLimit is DynamoDB's classic ceiling on a transact group.
const DefaultBatchLimit = 25

// BatchCommitter accumulates transact write entries and commits them in
// bounded groups so no single atomic write exceeds the store limit. It has no
// business logic of its own.
type BatchCommitter struct {
	client  DynamoAPI
	limit   int
	items   []types.TransactWriteItem
	flushes int
	noops   int
	logger  *logging.Logger
}

// NewBatchCommitter builds a committer with the given group ceiling.
// A non-positive limit falls back to DefaultBatchLimit.
func NewBatchCommitter(client DynamoAPI, limit int, logger *logging.Logger) *BatchCommitter {
	if client == nil {
		panic("appointments: dynamodb client cannot be nil")
	}
	if limit <= 0 {
		limit = DefaultBatchLimit
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &BatchCommitter{client: client, limit: limit, logger: logger}
}

// Add queues one write. When the queue reaches the ceiling it commits
// immediately and resets. Returns whether a flush happened.
func (c *BatchCommitter) Add(ctx context.Context, item types.TransactWriteItem) (bool, error) {
	c.items = append(c.items, item)
	if len(c.items) < c.limit {
		return false, nil
	}
	if err := c.Flush(ctx); err != nil {
		return true, err
	}
	return true, nil
}

// Pending returns the number of queued, uncommitted writes.
func (c *BatchCommitter) Pending() int { return len(c.items) }

// Flushes returns how many groups were committed so far.
func (c *BatchCommitter) Flushes() int { return c.flushes }

// ConditionNoops returns how many queued writes were dropped because their
// precondition no longer held by commit time.
func (c *BatchCommitter) ConditionNoops() int { return c.noops }

// Flush commits the remainder. Entries whose condition fails are dropped and
// the rest retried, so one raced appointment never sinks the whole group.
func (c *BatchCommitter) Flush(ctx context.Context) error {
	if len(c.items) == 0 {
		return nil
	}
	batch := c.items
	c.items = nil

	for len(batch) > 0 {
		_, err := c.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
			TransactItems: batch,
		})
		if err == nil {
			c.flushes++
			return nil
		}

		var cancelled *types.TransactionCanceledException
		if !errors.As(err, &cancelled) {
			return fmt.Errorf("appointments: commit batch of %d: %w", len(batch), err)
		}

		survivors := batch[:0]
		dropped := 0
		for i, reason := range cancelled.CancellationReasons {
			if i >= len(batch) {
				break
			}
			if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
				dropped++
				continue
			}
			survivors = append(survivors, batch[i])
		}
		if dropped == 0 {
			return fmt.Errorf("appointments: commit batch of %d: %w", len(batch), err)
		}
		c.noops += dropped
		c.logger.Info("batch commit dropped raced writes", "dropped", dropped, "remaining", len(survivors))
		batch = survivors
	}
	return nil
}
