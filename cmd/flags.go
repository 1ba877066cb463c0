package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/attendance-check/internal/config"
)

// mustGetBool gets a bool flag value or panics if the flag doesn't exist.
// This is appropriate for flags defined in init() - errors indicate programming bugs.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

// mustGetInt gets an int flag value or panics if the flag doesn't exist.
func mustGetInt(cmd *cobra.Command, name string) int {
	val, err := cmd.Flags().GetInt(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

// mustGetString gets a string flag value or panics if the flag doesn't exist.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

// mustGetFloat64 gets a float64 flag value or panics if the flag doesn't exist.
func mustGetFloat64(cmd *cobra.Command, name string) float64 {
	val, err := cmd.Flags().GetFloat64(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

// mustGetStringSlice gets a string slice flag value or panics if the flag doesn't exist.
func mustGetStringSlice(cmd *cobra.Command, name string) []string {
	val, err := cmd.Flags().GetStringSlice(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

// applyDetectionFlags overrides configured thresholds with flags the user
// set explicitly.
func applyDetectionFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("blur-threshold") {
		cfg.Detection.BlurThreshold = mustGetFloat64(cmd, "blur-threshold")
	}
	if cmd.Flags().Changed("brightness-threshold") {
		cfg.Detection.BrightnessThreshold = mustGetFloat64(cmd, "brightness-threshold")
	}
	if cmd.Flags().Changed("no-glare") {
		cfg.Detection.GlareDetection = !mustGetBool(cmd, "no-glare")
	}
	if cmd.Flags().Changed("oracle") {
		cfg.Oracle.Provider = strings.ToLower(mustGetString(cmd, "oracle"))
	}
}

// addDetectionFlags registers the flags read by applyDetectionFlags.
func addDetectionFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("blur-threshold", 50, "Laplacian variance below which an image is blurry")
	cmd.Flags().Float64("brightness-threshold", 200, "Mean brightness above which an image shows screen glare")
	cmd.Flags().Bool("no-glare", false, "Disable the screen glare check")
	cmd.Flags().String("oracle", "", "Vision model oracle: none, gemini, openai, ollama, llamacpp (default from ORACLE_PROVIDER)")
}
