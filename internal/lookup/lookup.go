// Package lookup searches folders of blocked-rider spreadsheets: which dated
// folders mention a rider, and which teams and riders appear most often.
package lookup

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/kozaktomas/attendance-check/internal/attendance"
	"github.com/kozaktomas/attendance-check/internal/constants"
	"github.com/kozaktomas/attendance-check/internal/sheet"
)

// FileError records a spreadsheet that could not be read.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e FileError) Unwrap() error {
	return e.Err
}

// FindFiles returns every .xlsx and .csv file under root, sorted. Office lock
// files and previous offender report folders are skipped.
func FindFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), constants.OffenderDirPrefix) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), constants.LockFilePrefix) || !sheet.Supported(d.Name()) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	slices.Sort(files)
	return files, nil
}

// RiderSummary lists the folders whose files mention a rider.
type RiderSummary struct {
	RiderID string
	Folders []string // sorted, distinct
	Count   int      // matching files
}

// FindRiders checks every file for the given rider IDs. A file counts once
// per rider no matter how many rows mention it; the file's parent folder name
// is recorded. Files without a Rider ID column are ignored.
func FindRiders(ctx context.Context, files, ids []string, schema *attendance.Schema) ([]RiderSummary, []FileError) {
	ids = uniqueIDs(ids)
	folders := make(map[string][]string, len(ids))
	counts := make(map[string]int, len(ids))
	var errs []FileError

	for _, path := range files {
		if ctx.Err() != nil {
			errs = append(errs, FileError{Path: path, Err: ctx.Err()})
			break
		}

		present, err := riderIDs(path, schema)
		if err != nil {
			errs = append(errs, FileError{Path: path, Err: err})
			continue
		}

		folder := filepath.Base(filepath.Dir(path))
		for _, id := range ids {
			if present[id] {
				folders[id] = append(folders[id], folder)
				counts[id]++
			}
		}
	}

	summaries := make([]RiderSummary, len(ids))
	for i, id := range ids {
		f := slices.Clone(folders[id])
		slices.Sort(f)
		summaries[i] = RiderSummary{
			RiderID: id,
			Folders: slices.Compact(f),
			Count:   counts[id],
		}
	}
	return summaries, errs
}

// riderIDs returns the set of rider IDs in a file. A file without the
// column yields an empty set.
func riderIDs(path string, schema *attendance.Schema) (map[string]bool, error) {
	table, err := sheet.Read(path)
	if err != nil {
		return nil, err
	}
	binding, err := attendance.Bind(table, schema)
	if err != nil {
		return nil, err
	}

	ids := make(map[string]bool)
	if !binding.Has(constants.ColumnRiderID) {
		return ids, nil
	}
	for _, rec := range binding.Records() {
		if rec.RiderID != "" {
			ids[rec.RiderID] = true
		}
	}
	return ids, nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
