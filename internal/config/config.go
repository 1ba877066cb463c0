package config

import (
	_ "embed"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Oracle failure policies. The same policy applies to transport errors and to
// replies that cannot be parsed.
const (
	FailOpen   = "open"
	FailClosed = "closed"
)

type Config struct {
	Detection      DetectionConfig
	Oracle         OracleConfig
	OpenAI         OpenAIConfig
	Gemini         GeminiConfig
	Ollama         OllamaConfig
	LlamaCpp       LlamaCppConfig
	Database       DatabaseConfig
	Web            WebConfig
	Logging        LoggingConfig
	Columns        []ColumnSpec
	Prices         PricesConfig
	AttendanceRoot string // root folder scanned by lookup and offenders
}

// DetectionConfig holds the fixed thresholds of the fake-image heuristic.
type DetectionConfig struct {
	BlurThreshold       float64       `yaml:"blur_threshold"`       // Laplacian variance below this is blurry
	BrightnessThreshold float64       `yaml:"brightness_threshold"` // mean HSV value above this is glare
	ConfidenceThreshold float64       `yaml:"confidence_threshold"` // minimum oracle confidence for a screen verdict
	GlareDetection      bool          `yaml:"glare_detection"`
	FetchTimeout        time.Duration `yaml:"fetch_timeout"`
	DownloadTimeout     time.Duration `yaml:"download_timeout"`
}

type OracleConfig struct {
	Provider      string // none, gemini, openai, ollama, llamacpp
	ModelEndpoint string // base URL for self-hosted providers
	Model         string // overrides the provider default model
	FailurePolicy string // FailOpen or FailClosed
}

// Enabled reports whether a remote oracle is configured.
func (c *OracleConfig) Enabled() bool {
	return c.Provider != "" && c.Provider != "none"
}

type OpenAIConfig struct {
	Token string
}

type GeminiConfig struct {
	APIKey string
}

type OllamaConfig struct {
	URL   string // defaults to http://localhost:11434
	Model string // defaults to llama3.2-vision:11b
}

type LlamaCppConfig struct {
	URL   string // defaults to http://localhost:8080
	Model string // defaults to llava
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL, audit store is disabled when empty
	MaxOpenConns int    // Maximum open connections (default 5)
	MaxIdleConns int    // Maximum idle connections (default 2)
}

type WebConfig struct {
	AllowedOrigins []string
}

type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // console or json
}

// ColumnSpec maps a canonical attendance column to the header spellings
// that are accepted for it.
type ColumnSpec struct {
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
}

type PricesConfig struct {
	Models map[string]ModelPricing `yaml:"models"`
}

type ModelPricing struct {
	Standard RequestPricing `yaml:"standard"`
}

type RequestPricing struct {
	Input  float64 `yaml:"input"`
	Output float64 `yaml:"output"`
}

type defaults struct {
	Detection DetectionConfig         `yaml:"detection"`
	Columns   []ColumnSpec            `yaml:"columns"`
	Models    map[string]ModelPricing `yaml:"models"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads a non-negative float, falling back to defaultVal.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 {
		return f
	}
	return defaultVal
}

func envBool(key string, defaultVal bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return defaultVal
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func envList(key string) []string {
	var out []string
	for item := range strings.SplitSeq(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func loadDefaults() defaults {
	var d defaults
	if err := yaml.Unmarshal(defaultsYAML, &d); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}
	return d
}

// DefaultColumns returns the embedded attendance column schema.
func DefaultColumns() []ColumnSpec {
	return loadDefaults().Columns
}

func Load() *Config {
	d := loadDefaults()

	policy := strings.ToLower(envString("ORACLE_FAILURE_POLICY", FailOpen))
	if policy != FailClosed {
		policy = FailOpen
	}

	return &Config{
		Detection: DetectionConfig{
			BlurThreshold:       envFloat("BLUR_THRESHOLD", d.Detection.BlurThreshold),
			BrightnessThreshold: envFloat("BRIGHTNESS_THRESHOLD", d.Detection.BrightnessThreshold),
			ConfidenceThreshold: envFloat("CONFIDENCE_THRESHOLD", d.Detection.ConfidenceThreshold),
			GlareDetection:      envBool("GLARE_DETECTION", d.Detection.GlareDetection),
			FetchTimeout:        envDuration("FETCH_TIMEOUT", d.Detection.FetchTimeout),
			DownloadTimeout:     envDuration("DOWNLOAD_TIMEOUT", d.Detection.DownloadTimeout),
		},
		Oracle: OracleConfig{
			Provider:      strings.ToLower(envString("ORACLE_PROVIDER", "none")),
			ModelEndpoint: os.Getenv("ORACLE_MODEL_ENDPOINT"),
			Model:         os.Getenv("ORACLE_MODEL"),
			FailurePolicy: policy,
		},
		OpenAI: OpenAIConfig{
			Token: os.Getenv("OPENAI_TOKEN"),
		},
		Gemini: GeminiConfig{
			APIKey: os.Getenv("GEMINI_API_KEY"),
		},
		Ollama: OllamaConfig{
			URL:   os.Getenv("OLLAMA_URL"),
			Model: os.Getenv("OLLAMA_MODEL"),
		},
		LlamaCpp: LlamaCppConfig{
			URL:   os.Getenv("LLAMACPP_URL"),
			Model: os.Getenv("LLAMACPP_MODEL"),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 5),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 2),
		},
		Web: WebConfig{
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS"),
		},
		Logging: LoggingConfig{
			Level:  envString("LOG_LEVEL", "info"),
			Format: envString("LOG_FORMAT", "console"),
		},
		Columns:        d.Columns,
		Prices:         PricesConfig{Models: d.Models},
		AttendanceRoot: envString("ATTENDANCE_ROOT", "."),
	}
}

// GetModelPricing returns pricing for a specific model, with fallback defaults
func (c *Config) GetModelPricing(modelName string) ModelPricing {
	if pricing, ok := c.Prices.Models[modelName]; ok {
		return pricing
	}
	// Return zero pricing if model not found
	return ModelPricing{}
}
