package cmd

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kozaktomas/attendance-check/internal/attendance"
	"github.com/kozaktomas/attendance-check/internal/config"
	"github.com/kozaktomas/attendance-check/internal/constants"
	"github.com/kozaktomas/attendance-check/internal/database"
	"github.com/kozaktomas/attendance-check/internal/report"
	"github.com/kozaktomas/attendance-check/internal/sheet"
	"github.com/kozaktomas/attendance-check/internal/verdict"
)

var detectCmd = &cobra.Command{
	Use:   "detect [attendance-file]",
	Short: "Scan an attendance file for fake selfies",
	Long: `Scan an attendance spreadsheet (.xlsx or .csv) and classify the selfie
of every row. Fake rows are written to fake_rider_attendance_<date>.xlsx
inside a new fake_attendance_<date> folder together with a detection log
and a markdown summary.

Rows are processed one at a time in file order. Press Ctrl+C to stop; the
rows finished so far are still written.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)

	detectCmd.Flags().StringP("file", "f", "", "Attendance file to scan (prompted when omitted)")
	detectCmd.Flags().StringP("output", "o", ".", "Directory in which the report folder is created")
	detectCmd.Flags().Bool("chart", true, "Embed a chart of detection reasons in the report")
	addDetectionFlags(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	applyDetectionFlags(cmd, cfg)

	logger, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	p := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
	path, err := inputPath(p, args, mustGetString(cmd, "file"), "Enter the path to the attendance file (.xlsx or .csv)")
	if err != nil {
		return err
	}

	table, err := sheet.Read(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	binding, err := attendance.Bind(table, attendance.NewSchema(cfg.Columns),
		constants.ColumnRiderID, constants.ColumnRiderName, constants.ColumnImageURL)
	if err != nil {
		return err
	}
	records := binding.Records()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	detector, oracle, err := newDetector(ctx, cfg, logger)
	if err != nil {
		return err
	}

	fmt.Printf("Scanning %d rows from %s\n", len(records), path)
	if oracle != nil {
		fmt.Printf("Oracle: %s (failure policy: %s)\n", oracle.Name(), cfg.Oracle.FailurePolicy)
	}
	fmt.Println()

	started := time.Now()
	bar := newProgressBar(len(records), "Checking selfies", "rows")
	result, scanErr := attendance.NewScanner(detector, logger).Scan(ctx, records, attendance.ScanOptions{
		OnProgress: func(done, total int, _ attendance.Entry) {
			bar.Set(done)
		},
	})
	bar.Finish()
	fmt.Println()

	interrupted := errors.Is(scanErr, context.Canceled)
	if scanErr != nil && !interrupted {
		return fmt.Errorf("scan failed: %w", scanErr)
	}
	if interrupted {
		fmt.Printf("Interrupted after %d of %d rows, writing partial results\n", len(result.Entries), len(records))
	}

	writer := report.NewWriter(mustGetString(cmd, "output"),
		report.WithChart(mustGetBool(cmd, "chart")),
		report.WithLogger(logger),
	)
	out, err := writer.Write(result, table.Header, path)
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	printDetectSummary(result, out)
	printUsage(oracle)

	run := &database.AuditRun{
		ID:         uuid.New(),
		Source:     path,
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	if oracle != nil {
		run.Provider = oracle.Name()
	}
	recordAudit(ctx, cfg, logger, run, result)

	if interrupted {
		logger.Warn("scan interrupted", zap.Int("processed", len(result.Entries)), zap.Int("total", len(records)))
		return scanErr
	}
	return nil
}

func printDetectSummary(result *attendance.ScanResult, out *report.Output) {
	fake := result.Fake()

	fmt.Println("Results:")
	fmt.Printf("  Rows checked: %d\n", len(result.Entries))
	fmt.Printf("  Fake:         %d\n", len(fake))
	for _, rc := range sortedCounts(result.Counts()) {
		fmt.Printf("    %-24s %d\n", rc.reason.Label(), rc.count)
	}
	fmt.Println()

	if len(fake) == 0 {
		fmt.Println("No fake images detected.")
	} else {
		fmt.Printf("Fake attendance report: %s\n", out.ReportPath)
	}
	fmt.Printf("Detection log:          %s\n", out.LogPath)
	fmt.Printf("Summary:                %s\n", out.SummaryPath)
}

type reasonCount struct {
	reason verdict.Reason
	count  int
}

// sortedCounts orders the reason histogram by reason.
func sortedCounts(counts map[verdict.Reason]int) []reasonCount {
	out := make([]reasonCount, 0, len(counts))
	for r, n := range counts {
		out = append(out, reasonCount{reason: r, count: n})
	}
	slices.SortFunc(out, func(a, b reasonCount) int { return cmp.Compare(a.reason, b.reason) })
	return out
}
