package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/attendance-check/internal/attendance"
	"github.com/kozaktomas/attendance-check/internal/config"
	"github.com/kozaktomas/attendance-check/internal/download"
	"github.com/kozaktomas/attendance-check/internal/fetch"
	"github.com/kozaktomas/attendance-check/internal/sheet"
)

var downloadCmd = &cobra.Command{
	Use:   "download [attendance-file]",
	Short: "Download every selfie of an attendance file",
	Long: `Download the selfie of every row into a new fake_attendance_image_<date>
folder, one <rider id>.jpg per rider. Rows without a rider ID or image URL are
skipped. After downloading, riders whose selfies are near-identical are listed,
which usually means the same photo was submitted more than once.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDownload,
}

func init() {
	rootCmd.AddCommand(downloadCmd)

	downloadCmd.Flags().StringP("file", "f", "", "Attendance file to read (prompted when omitted)")
	downloadCmd.Flags().StringP("output", "o", ".", "Directory in which the image folder is created")
}

func runDownload(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bar := newProgressBar(table.Len(), "Downloading selfies", "images")
	d := download.New(fetch.New(cfg.Detection.DownloadTimeout), logger)
	result, err := d.Run(ctx, table, attendance.NewSchema(cfg.Columns), mustGetString(cmd, "output"), download.Options{
		OnProgress: func(done, total int) {
			bar.Set(done)
		},
	})
	bar.Finish()
	fmt.Println()

	if errors.Is(err, download.ErrNoRows) {
		fmt.Println("No data found in the file.")
		return nil
	}
	if result == nil {
		return err
	}

	fmt.Printf("Saved %d images to %s\n", len(result.Saved), result.Dir)
	if result.Skipped > 0 {
		fmt.Printf("Skipped %d rows without a rider ID or image URL\n", result.Skipped)
	}
	if len(result.Failed) > 0 {
		fmt.Printf("Failed to download %d images:\n", len(result.Failed))
		for _, f := range result.Failed {
			fmt.Printf("  %s\n", f)
		}
	}

	if len(result.Duplicates) > 0 {
		fmt.Printf("\nRiders sharing a near-identical selfie (%d groups):\n", len(result.Duplicates))
		for i, group := range result.Duplicates {
			ids := make([]string, len(group))
			for j, item := range group {
				ids[j] = item.ID
			}
			fmt.Printf("  %d. %s\n", i+1, strings.Join(ids, ", "))
		}
	}

	return err
}
