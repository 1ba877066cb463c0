package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/attendance-check/internal/attendance"
	"github.com/kozaktomas/attendance-check/internal/config"
	"github.com/kozaktomas/attendance-check/internal/constants"
	"github.com/kozaktomas/attendance-check/internal/lookup"
)

var offendersCmd = &cobra.Command{
	Use:   "offenders [root]",
	Short: "Build the team offender report",
	Long: `Count how often every rider appears across the spreadsheets under the
attendance root, sum the appearances per team and write a Fake_offender_data_<date>
folder with the top rider spreadsheet and a team appearance chart.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runOffenders,
}

func init() {
	rootCmd.AddCommand(offendersCmd)

	offendersCmd.Flags().Int("top", 10, "Number of teams and riders to print")
}

func runOffenders(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	logger, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	root := cfg.AttendanceRoot
	if len(args) > 0 {
		root = args[0]
	}

	files, err := lookup.FindFiles(root)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", root, err)
	}
	if len(files) == 0 {
		fmt.Printf("No spreadsheets found under %s\n", root)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	agg, fileErrs := lookup.Aggregate(ctx, files, attendance.NewSchema(cfg.Columns))
	printFileErrors(fileErrs)
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(agg.Riders) == 0 {
		fmt.Println("No rider rows found.")
		return nil
	}

	out, err := lookup.SaveOffenders(root, time.Now().Format(constants.DateLayout), agg)
	if err != nil {
		return fmt.Errorf("failed to save offender report: %w", err)
	}

	top := mustGetInt(cmd, "top")
	fmt.Printf("Teams by rider appearances (%d teams, %d riders, %d files):\n", len(agg.Teams), len(agg.Riders), len(files))
	for i, t := range agg.Teams[:headLen(top, len(agg.Teams))] {
		fmt.Printf("  %2d. %-30s %d\n", i+1, t.Team, t.Total)
	}
	fmt.Println("\nTop riders:")
	for i, r := range agg.Riders[:headLen(top, len(agg.Riders))] {
		fmt.Printf("  %2d. %-12s %-25s %-20s %d\n", i+1, r.RiderID, r.RiderName, r.TeamName, r.Count)
	}

	fmt.Printf("\nReport saved to %s\n", out.ReportPath)
	if out.ChartPath != "" {
		fmt.Printf("Chart saved to %s\n", out.ChartPath)
	}
	return nil
}

// headLen clamps a --top value to [0, length].
func headLen(top, length int) int {
	return min(max(top, 0), length)
}
