package attendance

import (
	"context"

	"go.uber.org/zap"

	"github.com/kozaktomas/attendance-check/internal/constants"
	"github.com/kozaktomas/attendance-check/internal/verdict"
)

// URLDetector classifies the image behind a URL.
type URLDetector interface {
	Detect(ctx context.Context, imageURL string) verdict.Verdict
}

// Entry pairs a record with its verdict.
type Entry struct {
	Record  Record
	Verdict verdict.Verdict
}

// ScanResult holds one entry per scanned record, in input order.
type ScanResult struct {
	Entries []Entry
}

// Fake returns the entries judged fake, in input order.
func (r *ScanResult) Fake() []Entry {
	var out []Entry
	for _, e := range r.Entries {
		if e.Verdict.Fake {
			out = append(out, e)
		}
	}
	return out
}

// Counts returns how many entries ended with each reason.
func (r *ScanResult) Counts() map[verdict.Reason]int {
	counts := make(map[verdict.Reason]int)
	for _, e := range r.Entries {
		counts[e.Verdict.Reason]++
	}
	return counts
}

// ScanOptions configures a scan.
type ScanOptions struct {
	// OnProgress is called after every record with the number done so far.
	OnProgress func(done, total int, entry Entry)
}

// Scanner classifies records one at a time in input order.
type Scanner struct {
	detector URLDetector
	logger   *zap.Logger
}

func NewScanner(detector URLDetector, logger *zap.Logger) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{detector: detector, logger: logger}
}

// Scan classifies every record. A cancelled context stops the scan and
// returns the entries finished so far together with ctx.Err().
func (s *Scanner) Scan(ctx context.Context, records []Record, opts ScanOptions) (*ScanResult, error) {
	result := &ScanResult{Entries: make([]Entry, 0, len(records))}
	total := len(records)

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			s.logger.Warn("scan cancelled", zap.Int("processed", i), zap.Int("total", total))
			return result, err
		}

		entry := Entry{Record: rec, Verdict: s.detector.Detect(ctx, rec.ImageURL)}
		if err := ctx.Err(); err != nil {
			// interrupted mid-record, its verdict reflects the cancellation
			s.logger.Warn("scan cancelled", zap.Int("processed", i), zap.Int("total", total))
			return result, err
		}
		result.Entries = append(result.Entries, entry)

		if entry.Verdict.Fake {
			s.logger.Debug("fake image",
				zap.Int("line", rec.Line),
				zap.String("rider_id", rec.RiderID),
				zap.Stringer("reason", entry.Verdict.Reason))
		}
		if (i+1)%constants.ProgressInterval == 0 {
			s.logger.Info("scan progress", zap.Int("processed", i+1), zap.Int("total", total))
		}
		if opts.OnProgress != nil {
			opts.OnProgress(i+1, total, entry)
		}
	}

	return result, nil
}
