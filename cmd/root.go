package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kozaktomas/attendance-check/internal/config"
	"github.com/kozaktomas/attendance-check/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "attendance-check",
	Short: "Detect fake rider attendance selfies",
	Long: `Attendance Check scans rider check-in spreadsheets, downloads every
attendance selfie and flags the ones that look fake: blurry shots, screen
glare, or (with a vision model configured) photos of a screen.

It also downloads selfies for manual review, looks up riders across dated
report folders and builds per-team offender reports.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (default from LOG_LEVEL or info)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: console or json (default from LOG_FORMAT or console)")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}

// newLogger builds the zap logger, letting the persistent flags override
// the environment.
func newLogger(cmd *cobra.Command, cfg *config.Config) (*zap.Logger, error) {
	logCfg := cfg.Logging
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		logCfg.Level = level
	}
	if format, _ := cmd.Flags().GetString("log-format"); format != "" {
		logCfg.Format = format
	}
	return logging.InitLogger(&logCfg)
}
