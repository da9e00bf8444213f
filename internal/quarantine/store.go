package quarantine

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/pkg/logging"
)

// Record captures one malformed store document. Instead of letting an
// undecodable appointment crash or silently vanish from a run, it lands here
// with its problems spelled out.
type Record struct {
	DocID  string
	Source string
	Issues []string
	Raw    []byte
	SeenAt time.Time
}

// Store persists quarantined documents to Postgres.
type Store struct {
	db     *sql.DB
	logger *logging.Logger
}

// NewStore creates a quarantine store. A nil db disables it.
func NewStore(db *sql.DB, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{db: db, logger: logger}
}

// Enabled reports whether a quarantine database is configured.
func (s *Store) Enabled() bool {
	return s != nil && s.db != nil
}

// Add inserts one quarantined document. Best-effort: callers log the error
// and keep scanning.
func (s *Store) Add(ctx context.Context, rec Record) error {
	if !s.Enabled() {
		return nil
	}
	if rec.SeenAt.IsZero() {
		rec.SeenAt = time.Now().UTC()
	}
	raw := rec.Raw
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO quarantined_docs (doc_id, source, issues, raw, seen_at)
		VALUES ($1, $2, $3, $4, $5)`,
		rec.DocID, rec.Source, pq.Array(rec.Issues), raw, rec.SeenAt,
	)
	if err != nil {
		return fmt.Errorf("quarantine: add %s: %w", rec.DocID, err)
	}
	return nil
}

// Count returns how many documents a source has quarantined.
func (s *Store) Count(ctx context.Context, source string) (int, error) {
	if !s.Enabled() {
		return 0, nil
	}
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM quarantined_docs WHERE source = $1`, source).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("quarantine: count: %w", err)
	}
	return n, nil
}
