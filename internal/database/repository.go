package database

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AuditWriter persists detection runs. The store is write-only: nothing in a
// scan reads it back.
type AuditWriter interface {
	// StartRun inserts a run row. run.ID must be set.
	StartRun(ctx context.Context, run *AuditRun) error
	// RecordVerdicts appends verdicts to a started run.
	RecordVerdicts(ctx context.Context, runID uuid.UUID, verdicts []AuditVerdict) error
	// FinishRun stores the completion time and totals.
	FinishRun(ctx context.Context, runID uuid.UUID, finishedAt time.Time, total, fake int) error
}
