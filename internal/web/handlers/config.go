package handlers

import (
	"net/http"

	"github.com/kozaktomas/attendance-check/internal/config"
	"github.com/kozaktomas/attendance-check/internal/database"
)

// ConfigHandler reports how the detector is configured.
type ConfigHandler struct {
	config *config.Config
}

func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{config: cfg}
}

type ConfigResponse struct {
	Oracle        string         `json:"oracle"`
	FailurePolicy string         `json:"failure_policy"`
	Providers     []ProviderInfo `json:"providers"`
	Thresholds    ThresholdsInfo `json:"thresholds"`
	AuditEnabled  bool           `json:"audit_enabled"`
}

type ProviderInfo struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
}

type ThresholdsInfo struct {
	Blur           float64 `json:"blur"`
	Brightness     float64 `json:"brightness"`
	Confidence     float64 `json:"confidence"`
	GlareDetection bool    `json:"glare_detection"`
}

// Get returns the active detection configuration without secrets.
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	det := h.config.Detection
	respondJSON(w, http.StatusOK, ConfigResponse{
		Oracle:        h.config.Oracle.Provider,
		FailurePolicy: h.config.Oracle.FailurePolicy,
		Providers: []ProviderInfo{
			{Name: "openai", Available: h.config.OpenAI.Token != ""},
			{Name: "gemini", Available: h.config.Gemini.APIKey != ""},
			{Name: "ollama", Available: true},
			{Name: "llamacpp", Available: true},
		},
		Thresholds: ThresholdsInfo{
			Blur:           det.BlurThreshold,
			Brightness:     det.BrightnessThreshold,
			Confidence:     det.ConfidenceThreshold,
			GlareDetection: det.GlareDetection,
		},
		AuditEnabled: database.IsInitialized(),
	})
}
