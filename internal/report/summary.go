package report

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/kozaktomas/attendance-check/internal/attendance"
)

func (w *Writer) writeSummary(path string, result *attendance.ScanResult, source string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create summary: %w", err)
	}
	defer f.Close()

	if err := WriteSummary(f, result, source, w.now().Format("2006-01-02 15:04:05")); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return f.Close()
}

// WriteSummary renders a markdown overview of a scan.
func WriteSummary(out io.Writer, result *attendance.ScanResult, source, generated string) error {
	md := markdown.NewMarkdown(out)
	fake := result.Fake()

	md.H1("Fake Attendance Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Source", "`" + source + "`"},
			{"Generated", generated},
			{"Records", strconv.Itoa(len(result.Entries))},
			{"Fake", strconv.Itoa(len(fake))},
		},
	})
	md.PlainText("")

	points := reasonPoints(result.Counts())
	md.H2("Verdicts by Reason")
	md.PlainText("")
	rows := make([][]string, len(points))
	for i, p := range points {
		rows[i] = []string{p.Label, strconv.Itoa(int(p.Value))}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Reason", "Records"},
		Rows:   rows,
	})
	md.PlainText("")

	if len(points) > 0 {
		pie := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Verdict Distribution"),
			piechart.WithShowData(true),
		)
		for _, p := range points {
			pie.LabelAndIntValue(p.Label, uint64(p.Value))
		}
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, pie.String())
		md.PlainText("")
	}

	md.H2("Fake Records")
	md.PlainText("")
	if len(fake) == 0 {
		md.Tip("No fake images detected.")
	} else {
		fakeRows := make([][]string, len(fake))
		for i, e := range fake {
			fakeRows[i] = []string{
				strconv.Itoa(e.Record.Line),
				e.Record.RiderID,
				e.Record.RiderName,
				e.Verdict.String(),
			}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Row", "Rider ID", "Rider Name", "Reason"},
			Rows:   fakeRows,
		})
	}

	return md.Build()
}
