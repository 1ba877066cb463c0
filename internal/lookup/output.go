package lookup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"

	"github.com/kozaktomas/attendance-check/internal/chart"
	"github.com/kozaktomas/attendance-check/internal/constants"
	"github.com/kozaktomas/attendance-check/internal/report"
	"github.com/kozaktomas/attendance-check/internal/sheet"
)

var riderSummaryHeader = []string{"Rider_ID", "Dates", "Total Count"}

// SaveRiderSummary writes the lookup result as a spreadsheet.
func SaveRiderSummary(path string, summaries []RiderSummary) error {
	rows := make([][]any, len(summaries))
	for i, s := range summaries {
		rows[i] = []any{s.RiderID, strings.Join(s.Folders, ", "), s.Count}
	}
	return sheet.WriteXLSX(path, riderSummaryHeader, rows, nil)
}

// PrintRiderSummary renders the lookup result as a markdown table.
func PrintRiderSummary(w io.Writer, summaries []RiderSummary) error {
	rows := make([][]string, len(summaries))
	for i, s := range summaries {
		rows[i] = []string{s.RiderID, strings.Join(s.Folders, ", "), strconv.Itoa(s.Count)}
	}
	return markdown.NewMarkdown(w).
		Table(markdown.TableSet{Header: riderSummaryHeader, Rows: rows}).
		Build()
}

// OffenderOutput lists the files written by SaveOffenders.
type OffenderOutput struct {
	Dir        string
	ReportPath string
	ChartPath  string // empty when there was nothing to plot
}

var offenderHeader = []string{
	constants.ColumnRiderID,
	constants.ColumnRiderName,
	constants.ColumnPhone,
	constants.ColumnTeamName,
	constants.ColumnTotalCount,
}

// SaveOffenders creates root/Fake_offender_data_<date>[-N] holding the top
// rider spreadsheet (named after the folder) with the team chart at G2.
func SaveOffenders(root, date string, agg *Aggregation) (*OffenderOutput, error) {
	dir, err := report.UniqueDir(root, constants.OffenderDirPrefix+date)
	if err != nil {
		return nil, err
	}
	out := &OffenderOutput{
		Dir:        dir,
		ReportPath: filepath.Join(dir, filepath.Base(dir)+".xlsx"),
	}

	points := make([]chart.Point, len(agg.Teams))
	for i, t := range agg.Teams {
		points[i] = chart.Point{Label: t.Team, Value: float64(t.Total)}
	}

	var pic *sheet.Picture
	if len(points) > 0 {
		data, err := chart.TeamLine(points, chart.Size{Width: 2 * constants.ChartWidth, Height: 2 * constants.ChartHeight})
		if err != nil {
			return nil, err
		}
		out.ChartPath = filepath.Join(dir, constants.TeamChartFileName)
		if err := os.WriteFile(out.ChartPath, data, 0o644); err != nil {
			return nil, fmt.Errorf("failed to save chart: %w", err)
		}
		pic = &sheet.Picture{
			Cell:   constants.ChartCell,
			Data:   data,
			Width:  constants.ChartWidth,
			Height: constants.ChartHeight,
		}
	}

	rows := make([][]any, len(agg.Riders))
	for i, r := range agg.Riders {
		rows[i] = []any{r.RiderID, r.RiderName, r.Phone, r.TeamName, r.Count}
	}
	if err := sheet.WriteXLSX(out.ReportPath, offenderHeader, rows, pic); err != nil {
		return nil, err
	}
	return out, nil
}
