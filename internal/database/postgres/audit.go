package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kozaktomas/attendance-check/internal/database"
)

// AuditRepository implements database.AuditWriter.
type AuditRepository struct {
	pool *Pool
}

func NewAuditRepository(pool *Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

func (r *AuditRepository) StartRun(ctx context.Context, run *database.AuditRun) error {
	_, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO audit_runs (id, source, provider, started_at)
		VALUES ($1, $2, $3, $4)
	`, run.ID, run.Source, run.Provider, run.StartedAt)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// RecordVerdicts inserts all verdicts in a single transaction.
func (r *AuditRepository) RecordVerdicts(ctx context.Context, runID uuid.UUID, verdicts []database.AuditVerdict) error {
	if len(verdicts) == 0 {
		return nil
	}

	tx, err := r.pool.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO audit_verdicts
			(run_id, line, rider_id, rider_name, image_url, reason, detail, is_fake, confidence, blur_score, brightness)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, v := range verdicts {
		_, err := stmt.ExecContext(ctx, runID, v.Line, v.RiderID, v.RiderName, v.ImageURL,
			v.Reason, v.Detail, v.Fake, v.Confidence, v.BlurScore, v.Brightness)
		if err != nil {
			return fmt.Errorf("insert verdict for line %d: %w", v.Line, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit verdicts: %w", err)
	}
	return nil
}

func (r *AuditRepository) FinishRun(ctx context.Context, runID uuid.UUID, finishedAt time.Time, total, fake int) error {
	res, err := r.pool.db.ExecContext(ctx, `
		UPDATE audit_runs SET finished_at = $2, total = $3, fake = $4 WHERE id = $1
	`, runID, finishedAt, total, fake)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	return nil
}
