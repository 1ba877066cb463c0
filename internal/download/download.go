// Package download saves every selfie of an attendance sheet to disk, named
// after the rider, and flags photos reused across riders.
package download

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kozaktomas/attendance-check/internal/attendance"
	"github.com/kozaktomas/attendance-check/internal/constants"
	"github.com/kozaktomas/attendance-check/internal/fingerprint"
	"github.com/kozaktomas/attendance-check/internal/report"
	"github.com/kozaktomas/attendance-check/internal/sheet"
)

// ErrNoRows is returned for a sheet without data rows.
var ErrNoRows = errors.New("no data found in the file")

// RowError is a record whose image could not be saved.
type RowError struct {
	Line    int
	RiderID string
	Err     error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d (rider %s): %v", e.Line, e.RiderID, e.Err)
}

// Result summarizes a download run.
type Result struct {
	Dir        string
	Saved      []string // file paths, in row order
	Skipped    int      // rows missing a rider ID or URL
	Failed     []RowError
	Duplicates [][]fingerprint.Item // riders sharing a near-identical selfie
}

// Options configures a run.
type Options struct {
	OnProgress func(done, total int)
}

// Downloader fetches selfies into a dated folder.
type Downloader struct {
	fetcher attendance.ImageFetcher
	now     func() time.Time
	logger  *zap.Logger
}

func New(fetcher attendance.ImageFetcher, logger *zap.Logger) *Downloader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Downloader{fetcher: fetcher, now: time.Now, logger: logger}
}

// Run binds the table, creates parent/fake_attendance_image_<date>[-N] and
// saves each row's image as <rider id>.jpg. Per-row failures are collected,
// not returned.
func (d *Downloader) Run(ctx context.Context, table *sheet.Table, schema *attendance.Schema, parent string, opts Options) (*Result, error) {
	binding, err := attendance.Bind(table, schema, constants.ColumnRiderID, constants.ColumnImageURL)
	if err != nil {
		return nil, err
	}
	records := binding.Records()
	if len(records) == 0 {
		return nil, ErrNoRows
	}

	dir, err := report.UniqueDir(parent, constants.ImageDirPrefix+d.now().Format(constants.DateLayout))
	if err != nil {
		return nil, err
	}
	result := &Result{Dir: dir}
	var hashed []fingerprint.Item

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if rec.RiderID == "" || rec.ImageURL == "" || strings.EqualFold(rec.ImageURL, "nan") {
			result.Skipped++
		} else if path, data, err := d.save(ctx, dir, rec); err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			result.Failed = append(result.Failed, RowError{Line: rec.Line, RiderID: rec.RiderID, Err: err})
			d.logger.Warn("image download failed", zap.Int("line", rec.Line), zap.String("rider_id", rec.RiderID), zap.Error(err))
		} else {
			result.Saved = append(result.Saved, path)
			hashed = addHash(hashed, rec.RiderID, data, d.logger)
		}

		if opts.OnProgress != nil {
			opts.OnProgress(i+1, len(records))
		}
	}

	result.Duplicates = fingerprint.Groups(hashed, constants.DuplicateHashDistance)
	return result, nil
}

func (d *Downloader) save(ctx context.Context, dir string, rec attendance.Record) (string, []byte, error) {
	img, err := d.fetcher.Fetch(ctx, rec.ImageURL)
	if err != nil {
		return "", nil, err
	}
	path := filepath.Join(dir, FileName(rec.RiderID))
	if err := os.WriteFile(path, img.Data, 0o644); err != nil {
		return "", nil, fmt.Errorf("failed to save image: %w", err)
	}
	return path, img.Data, nil
}

// addHash records the image hash under the rider ID. A rider listed twice
// overwrites the same file, so only the latest hash is kept.
func addHash(items []fingerprint.Item, riderID string, data []byte, logger *zap.Logger) []fingerprint.Item {
	h, err := fingerprint.Compute(data)
	if err != nil {
		logger.Debug("skipping fingerprint", zap.String("rider_id", riderID), zap.Error(err))
		return items
	}
	for i := range items {
		if items[i].ID == riderID {
			items[i].Hash = h
			return items
		}
	}
	return append(items, fingerprint.Item{ID: riderID, Hash: h})
}

// FileName returns "<rider id>.jpg" with characters that are unsafe in file
// names replaced by underscores.
func FileName(riderID string) string {
	safe := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		if r < 0x20 {
			return '_'
		}
		return r
	}, strings.TrimSpace(riderID))
	if safe == "" || safe == "." || safe == ".." {
		safe = "_"
	}
	return safe + ".jpg"
}
