package database

import (
	"context"
	"fmt"
	"time"

	"github.com/kozaktomas/attendance-check/internal/attendance"
)

// verdictBatchSize bounds the number of rows sent per RecordVerdicts call.
const verdictBatchSize = 500

// RecordScan stores a finished scan: the run row, every verdict in batches,
// and the totals.
func RecordScan(ctx context.Context, w AuditWriter, run *AuditRun, result *attendance.ScanResult) error {
	if err := w.StartRun(ctx, run); err != nil {
		return fmt.Errorf("failed to start audit run: %w", err)
	}

	verdicts := Verdicts(run, result)
	for start := 0; start < len(verdicts); start += verdictBatchSize {
		end := min(start+verdictBatchSize, len(verdicts))
		if err := w.RecordVerdicts(ctx, run.ID, verdicts[start:end]); err != nil {
			return fmt.Errorf("failed to record verdicts: %w", err)
		}
	}

	finished := run.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	if err := w.FinishRun(ctx, run.ID, finished, len(result.Entries), len(result.Fake())); err != nil {
		return fmt.Errorf("failed to finish audit run: %w", err)
	}
	return nil
}

// Verdicts converts scan entries into audit rows for run.
func Verdicts(run *AuditRun, result *attendance.ScanResult) []AuditVerdict {
	out := make([]AuditVerdict, len(result.Entries))
	for i, e := range result.Entries {
		out[i] = AuditVerdict{
			RunID:      run.ID,
			Line:       e.Record.Line,
			RiderID:    e.Record.RiderID,
			RiderName:  e.Record.RiderName,
			ImageURL:   e.Record.ImageURL,
			Reason:     e.Verdict.Reason.String(),
			Detail:     e.Verdict.Detail,
			Fake:       e.Verdict.Fake,
			Confidence: e.Verdict.Confidence,
			BlurScore:  e.Verdict.BlurScore,
			Brightness: e.Verdict.Brightness,
		}
	}
	return out
}
