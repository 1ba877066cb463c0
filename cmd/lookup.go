package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/attendance-check/internal/attendance"
	"github.com/kozaktomas/attendance-check/internal/config"
	"github.com/kozaktomas/attendance-check/internal/constants"
	"github.com/kozaktomas/attendance-check/internal/lookup"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup [rider-id...]",
	Short: "Find the dated folders that list given riders",
	Long: `Search every spreadsheet under the attendance root for the given rider
IDs and report, per rider, the folders (dates) they appear in and how many
files mention them. The result is printed and saved as rider_block_summary.xlsx.

When no IDs are given you are asked how many riders to look up and then for
each ID.`,
	RunE: runLookup,
}

func init() {
	rootCmd.AddCommand(lookupCmd)

	lookupCmd.Flags().StringSlice("id", nil, "Rider ID to look up (repeatable)")
	lookupCmd.Flags().String("root", "", "Folder to search (default from ATTENDANCE_ROOT or current directory)")
	lookupCmd.Flags().StringP("output", "o", "", "Where to save the summary spreadsheet (default <root>/"+constants.LookupFileName+")")
}

func runLookup(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	logger, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	root := firstNonEmpty(mustGetString(cmd, "root"), cfg.AttendanceRoot)
	ids := append(mustGetStringSlice(cmd, "id"), args...)
	if len(ids) == 0 {
		ids, err = newPrompter(cmd.InOrStdin(), cmd.OutOrStdout()).riderIDs()
		if err != nil {
			return err
		}
	}

	files, err := lookup.FindFiles(root)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", root, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summaries, fileErrs := lookup.FindRiders(ctx, files, ids, attendance.NewSchema(cfg.Columns))
	printFileErrors(fileErrs)
	if err := ctx.Err(); err != nil {
		return err
	}

	fmt.Printf("Searched %d files under %s\n\n", len(files), root)
	if err := lookup.PrintRiderSummary(cmd.OutOrStdout(), summaries); err != nil {
		return fmt.Errorf("failed to print summary: %w", err)
	}

	out := firstNonEmpty(mustGetString(cmd, "output"), filepath.Join(root, constants.LookupFileName))
	if err := lookup.SaveRiderSummary(out, summaries); err != nil {
		return fmt.Errorf("failed to save summary: %w", err)
	}
	fmt.Printf("\nSummary saved to %s\n", out)
	return nil
}

// printFileErrors reports spreadsheets that were skipped.
func printFileErrors(errs []lookup.FileError) {
	if len(errs) == 0 {
		return
	}
	fmt.Printf("Skipped %d unreadable files:\n", len(errs))
	for _, e := range errs {
		fmt.Printf("  %s\n", e)
	}
	fmt.Println()
}
