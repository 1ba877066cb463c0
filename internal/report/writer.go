package report

import (
	"bufio"
	"cmp"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/kozaktomas/attendance-check/internal/attendance"
	"github.com/kozaktomas/attendance-check/internal/chart"
	"github.com/kozaktomas/attendance-check/internal/constants"
	"github.com/kozaktomas/attendance-check/internal/sheet"
	"github.com/kozaktomas/attendance-check/internal/verdict"
)

// Output lists the files written for one run. ReportPath is empty when no
// fake rows were found.
type Output struct {
	Dir         string
	ReportPath  string
	LogPath     string
	SummaryPath string
}

// Writer writes detection results into a dated folder.
type Writer struct {
	parent string
	chart  bool
	now    func() time.Time
	logger *zap.Logger
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithChart embeds a bar chart of detection reasons in the spreadsheet.
func WithChart(enabled bool) WriterOption {
	return func(w *Writer) { w.chart = enabled }
}

// WithClock overrides the time used for folder and file dates.
func WithClock(now func() time.Time) WriterOption {
	return func(w *Writer) { w.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) WriterOption {
	return func(w *Writer) { w.logger = logger }
}

// NewWriter creates a Writer that places run folders under parent.
func NewWriter(parent string, opts ...WriterOption) *Writer {
	w := &Writer{
		parent: parent,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write creates the run folder and writes every output. header is the
// original header row of the scanned file; source names it in the summary.
func (w *Writer) Write(result *attendance.ScanResult, header []string, source string) (*Output, error) {
	date := w.now().Format(constants.DateLayout)

	dir, err := UniqueDir(w.parent, constants.ReportDirPrefix+date)
	if err != nil {
		return nil, err
	}
	out := &Output{
		Dir:         dir,
		LogPath:     filepath.Join(dir, constants.LogFilePrefix+date+".txt"),
		SummaryPath: filepath.Join(dir, constants.SummaryFilePrefix+date+".md"),
	}

	if fake := result.Fake(); len(fake) > 0 {
		out.ReportPath = filepath.Join(dir, constants.ReportFilePrefix+date+".xlsx")
		if err := w.writeSpreadsheet(out.ReportPath, header, fake, result); err != nil {
			return nil, err
		}
	}

	if err := writeLog(out.LogPath, result); err != nil {
		return nil, err
	}

	if err := w.writeSummary(out.SummaryPath, result, source); err != nil {
		return nil, err
	}

	w.logger.Info("report written",
		zap.String("dir", out.Dir),
		zap.Int("records", len(result.Entries)),
		zap.Int("fake", len(result.Fake())))
	return out, nil
}

func (w *Writer) writeSpreadsheet(path string, header []string, fake []attendance.Entry, result *attendance.ScanResult) error {
	cols := append(slices.Clone(header), constants.ColumnReason)

	rows := make([][]any, len(fake))
	for i, e := range fake {
		row := make([]any, len(cols))
		for j := range header {
			if j < len(e.Record.Cells) {
				row[j] = e.Record.Cells[j]
			} else {
				row[j] = ""
			}
		}
		row[len(header)] = e.Verdict.String()
		rows[i] = row
	}

	var pic *sheet.Picture
	if w.chart {
		data, err := chart.ReasonBars(reasonPoints(fakeCounts(fake)), chart.Size{
			Width:  constants.ChartWidth,
			Height: constants.ChartHeight,
		})
		switch {
		case err == nil:
			pic = &sheet.Picture{
				Cell:   constants.ChartCell,
				Data:   data,
				Width:  constants.ChartWidth,
				Height: constants.ChartHeight,
			}
		case errors.Is(err, chart.ErrNoData):
		default:
			w.logger.Warn("failed to render reason chart", zap.Error(err))
		}
	}

	if err := sheet.WriteXLSX(path, cols, rows, pic); err != nil {
		return fmt.Errorf("failed to write fake attendance report: %w", err)
	}
	return nil
}

// writeLog writes one "Rider ID: <id> | <reason>" line per scanned record.
func writeLog(path string, result *attendance.ScanResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create detection log: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	for _, e := range result.Entries {
		fmt.Fprintf(bw, "Rider ID: %s | %s\n", e.Record.RiderID, e.Verdict)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write detection log: %w", err)
	}
	return f.Close()
}

func fakeCounts(fake []attendance.Entry) map[verdict.Reason]int {
	counts := make(map[verdict.Reason]int)
	for _, e := range fake {
		counts[e.Verdict.Reason]++
	}
	return counts
}

// reasonPoints orders reason counts by count desc, then reason.
func reasonPoints(counts map[verdict.Reason]int) []chart.Point {
	reasons := make([]verdict.Reason, 0, len(counts))
	for r, n := range counts {
		if n > 0 {
			reasons = append(reasons, r)
		}
	}
	slices.SortFunc(reasons, func(a, b verdict.Reason) int {
		if c := cmp.Compare(counts[b], counts[a]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})

	points := make([]chart.Point, len(reasons))
	for i, r := range reasons {
		points[i] = chart.Point{Label: r.Label(), Value: float64(counts[r])}
	}
	return points
}
