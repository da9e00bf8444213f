package runlog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/pkg/logging"
)

// Job names recorded in the ledger.
const (
	JobReminders    = "reminders"
	JobPaymentHolds = "payment-holds"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Run is one completed invocation of a lifecycle job with its aggregate
// counters. Operators get per-run history beyond what the logs keep.
type Run struct {
	ID         uuid.UUID
	Job        string
	StartedAt  time.Time
	FinishedAt time.Time
	Sent24h    int
	Sent2h     int
	Scanned    int
	Expired    int
	Skipped    int
	Errors     int
	Success    bool
	ErrorMsg   string
}

// Store persists job runs to Postgres.
type Store struct {
	db     DB
	logger *logging.Logger
}

// NewStore creates a run ledger store. A nil db disables it.
func NewStore(db DB, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{db: db, logger: logger}
}

// Enabled reports whether a ledger database is configured.
func (s *Store) Enabled() bool {
	return s != nil && s.db != nil
}

// Record inserts one run row. Best-effort for callers: they log the returned
// error and move on, a ledger outage must never fail the job itself.
func (s *Store) Record(ctx context.Context, run Run) error {
	if !s.Enabled() {
		return nil
	}
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO job_runs (id, job, started_at, finished_at, sent_24h, sent_2h, scanned, expired, skipped, errors, success, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		run.ID, run.Job, run.StartedAt, run.FinishedAt,
		run.Sent24h, run.Sent2h, run.Scanned, run.Expired, run.Skipped, run.Errors,
		run.Success, run.ErrorMsg,
	)
	if err != nil {
		return fmt.Errorf("runlog: record run: %w", err)
	}
	return nil
}

// RecentRuns lists the latest runs for a job, newest first.
func (s *Store) RecentRuns(ctx context.Context, job string, limit int) ([]Run, error) {
	if !s.Enabled() {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, job, started_at, finished_at, sent_24h, sent_2h, scanned, expired, skipped, errors, success, error_message
		FROM job_runs
		WHERE job = $1
		ORDER BY started_at DESC LIMIT $2`, job, limit)
	if err != nil {
		return nil, fmt.Errorf("runlog: list runs: %w", err)
	}
	defer rows.Close()

	var result []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(
			&r.ID, &r.Job, &r.StartedAt, &r.FinishedAt,
			&r.Sent24h, &r.Sent2h, &r.Scanned, &r.Expired, &r.Skipped, &r.Errors,
			&r.Success, &r.ErrorMsg,
		); err != nil {
			return nil, fmt.Errorf("runlog: scan run: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
