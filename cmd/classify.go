package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/attendance-check/internal/config"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <image-url>",
	Short: "Classify a single selfie URL",
	Long: `Download one image and run the same checks as detect: URL validation,
blur and glare heuristics, and the vision model oracle when configured.`,
	Args: cobra.ExactArgs(1),
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)

	classifyCmd.Flags().Bool("json", false, "Print the verdict as JSON")
	addDetectionFlags(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	applyDetectionFlags(cmd, cfg)

	logger, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	detector, oracle, err := newDetector(ctx, cfg, logger)
	if err != nil {
		return err
	}

	v := detector.Detect(ctx, args[0])

	if mustGetBool(cmd, "json") {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Verdict:    %s\n", v)
	fmt.Fprintf(out, "Fake:       %t\n", v.Fake)
	if v.BlurScore > 0 || v.Brightness > 0 {
		fmt.Fprintf(out, "Blur score: %.2f\n", v.BlurScore)
		fmt.Fprintf(out, "Brightness: %.2f\n", v.Brightness)
	}
	printUsage(oracle)
	return nil
}
