package handlers

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/kozaktomas/attendance-check/internal/verdict"
)

// URLDetector classifies the image behind a URL.
type URLDetector interface {
	Detect(ctx context.Context, imageURL string) verdict.Verdict
}

// ClassifyHandler serves single-image checks.
type ClassifyHandler struct {
	detector URLDetector
	logger   *zap.Logger
}

func NewClassifyHandler(detector URLDetector, logger *zap.Logger) *ClassifyHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassifyHandler{detector: detector, logger: logger}
}

type ClassifyRequest struct {
	URL     string `json:"url"`
	RiderID string `json:"rider_id,omitempty"`
}

type ClassifyResponse struct {
	RiderID    string  `json:"rider_id,omitempty"`
	IsFake     bool    `json:"is_fake"`
	Reason     string  `json:"reason"`
	Label      string  `json:"label"`
	Detail     string  `json:"detail,omitempty"`
	Confidence float64 `json:"confidence"`
	BlurScore  float64 `json:"blur_score"`
	Brightness float64 `json:"brightness"`
}

// Classify handles POST /api/v1/classify.
func (h *ClassifyHandler) Classify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		respondError(w, http.StatusBadRequest, "url is required")
		return
	}

	v := h.detector.Detect(r.Context(), req.URL)
	h.logger.Info("classified image",
		zap.String("rider_id", sanitizeForLog(req.RiderID)),
		zap.Stringer("reason", v.Reason),
		zap.Bool("fake", v.Fake),
	)

	respondJSON(w, http.StatusOK, ClassifyResponse{
		RiderID:    req.RiderID,
		IsFake:     v.Fake,
		Reason:     v.Reason.String(),
		Label:      v.String(),
		Detail:     v.Detail,
		Confidence: v.Confidence,
		BlurScore:  v.BlurScore,
		Brightness: v.Brightness,
	})
}
