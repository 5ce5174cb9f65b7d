package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kirillkom/benefits-navigator/internal/core/domain"
)

// AuditRepository persists answered questions for offline review. The worker
// consumes answer events from the queue and lands them here; nothing on the
// request path blocks on this table.
type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082802)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS answer_events (
	id TEXT PRIMARY KEY,
	question TEXT NOT NULL,
	answer TEXT NOT NULL,
	tier SMALLINT NOT NULL,
	confidence DOUBLE PRECISION NOT NULL,
	duration_ms BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_answer_events_created_at ON answer_events(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_answer_events_tier ON answer_events(tier);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// InsertAnswerEvent is idempotent on the event ID so queue redeliveries do
// not duplicate rows.
func (r *AuditRepository) InsertAnswerEvent(ctx context.Context, event domain.AnswerEvent) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO answer_events (id, question, answer, tier, confidence, duration_ms, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO NOTHING
`,
		event.ID, event.Question, event.Answer, event.Tier,
		event.Confidence, event.DurationMS, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert answer event: %w", err)
	}
	return nil
}
