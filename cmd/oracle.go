package cmd

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kozaktomas/attendance-check/internal/ai"
	"github.com/kozaktomas/attendance-check/internal/attendance"
	"github.com/kozaktomas/attendance-check/internal/config"
	"github.com/kozaktomas/attendance-check/internal/fetch"
	"github.com/kozaktomas/attendance-check/internal/quality"
)

// pricingFor converts configured model prices to provider pricing.
func pricingFor(cfg *config.Config, model string) ai.RequestPricing {
	p := cfg.GetModelPricing(model)
	return ai.RequestPricing{Input: p.Standard.Input, Output: p.Standard.Output}
}

// firstNonEmpty returns the first non-empty value.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// newOracle creates the configured spoof checker, or nil when the oracle is
// disabled.
func newOracle(ctx context.Context, cfg *config.Config) (ai.SpoofChecker, error) {
	oc := cfg.Oracle
	switch oc.Provider {
	case "", "none":
		return nil, nil
	case "openai":
		if cfg.OpenAI.Token == "" {
			return nil, errors.New("OPENAI_TOKEN environment variable is required")
		}
		model := firstNonEmpty(oc.Model, ai.DefaultOpenAIModel())
		return ai.NewOpenAIProvider(cfg.OpenAI.Token, oc.ModelEndpoint, model, pricingFor(cfg, model)), nil
	case "gemini":
		if cfg.Gemini.APIKey == "" {
			return nil, errors.New("GEMINI_API_KEY environment variable is required")
		}
		model := firstNonEmpty(oc.Model, ai.DefaultGeminiModel())
		p, err := ai.NewGeminiProvider(ctx, cfg.Gemini.APIKey, model, pricingFor(cfg, model))
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini provider: %w", err)
		}
		return p, nil
	case "ollama":
		return ai.NewOllamaProvider(
			firstNonEmpty(oc.ModelEndpoint, cfg.Ollama.URL),
			firstNonEmpty(oc.Model, cfg.Ollama.Model),
		), nil
	case "llamacpp":
		p, err := ai.NewLlamaCppProvider(
			firstNonEmpty(oc.ModelEndpoint, cfg.LlamaCpp.URL),
			firstNonEmpty(oc.Model, cfg.LlamaCpp.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create llama.cpp provider: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown oracle provider: %s (supported: none, gemini, openai, ollama, llamacpp)", oc.Provider)
	}
}

// newDetector wires fetcher, classifier and optional oracle. The returned
// oracle is nil when disabled.
func newDetector(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*attendance.Detector, ai.SpoofChecker, error) {
	classifier := quality.New(quality.Thresholds{
		Blur:           cfg.Detection.BlurThreshold,
		Brightness:     cfg.Detection.BrightnessThreshold,
		GlareDetection: cfg.Detection.GlareDetection,
	})

	opts := []attendance.DetectorOption{attendance.WithLogger(logger)}
	oracle, err := newOracle(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if oracle != nil {
		opts = append(opts, attendance.WithOracle(oracle, cfg.Detection.ConfidenceThreshold, cfg.Oracle.FailurePolicy))
		logger.Info("oracle enabled",
			zap.String("model", oracle.Name()),
			zap.String("failure_policy", cfg.Oracle.FailurePolicy),
		)
	}

	return attendance.NewDetector(fetch.New(cfg.Detection.FetchTimeout), classifier, opts...), oracle, nil
}

// printUsage reports oracle token usage and cost after a run.
func printUsage(oracle ai.SpoofChecker) {
	if oracle == nil {
		return
	}
	u := oracle.GetUsage()
	if u.Requests == 0 {
		return
	}
	fmt.Printf("Oracle (%s): %d requests, %d input / %d output tokens, $%.4f\n",
		oracle.Name(), u.Requests, u.InputTokens, u.OutputTokens, u.TotalCost)
}
