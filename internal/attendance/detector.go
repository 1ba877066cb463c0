package attendance

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/kozaktomas/attendance-check/internal/ai"
	"github.com/kozaktomas/attendance-check/internal/config"
	"github.com/kozaktomas/attendance-check/internal/fetch"
	"github.com/kozaktomas/attendance-check/internal/verdict"
)

// ImageFetcher downloads a selfie.
type ImageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetch.Image, error)
}

// ImageClassifier runs the local blur and glare heuristic.
type ImageClassifier interface {
	Classify(data []byte) verdict.Verdict
}

// Detector decides whether the selfie behind one URL is fake.
type Detector struct {
	fetcher    ImageFetcher
	classifier ImageClassifier
	oracle     ai.SpoofChecker
	confidence float64
	failClosed bool
	logger     *zap.Logger
}

// DetectorOption configures a Detector.
type DetectorOption func(*Detector)

// WithOracle enables the remote anti-spoofing check for images that pass the
// local heuristic. policy is config.FailOpen or config.FailClosed.
func WithOracle(oracle ai.SpoofChecker, confidence float64, policy string) DetectorOption {
	return func(d *Detector) {
		d.oracle = oracle
		d.confidence = confidence
		d.failClosed = policy == config.FailClosed
	}
}

// WithLogger sets the logger used for per-record diagnostics.
func WithLogger(logger *zap.Logger) DetectorOption {
	return func(d *Detector) {
		d.logger = logger
	}
}

func NewDetector(fetcher ImageFetcher, classifier ImageClassifier, opts ...DetectorOption) *Detector {
	d := &Detector{
		fetcher:    fetcher,
		classifier: classifier,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect fetches and classifies one image. It never fails: every problem is
// expressed as a verdict.
func (d *Detector) Detect(ctx context.Context, imageURL string) verdict.Verdict {
	if !fetch.ValidURL(imageURL) {
		return verdict.Failed(verdict.InvalidURL, nil)
	}

	img, err := d.fetcher.Fetch(ctx, imageURL)
	if err != nil {
		d.logger.Debug("image fetch failed", zap.String("url", imageURL), zap.Error(err))
		if errors.Is(err, fetch.ErrInvalidURL) {
			return verdict.Failed(verdict.InvalidURL, err)
		}
		return verdict.Failed(verdict.DownloadFailed, err)
	}

	v := d.classifier.Classify(img.Data)
	if v.Reason != verdict.LiveImage || d.oracle == nil {
		return v
	}

	return d.askOracle(ctx, img, v)
}

func (d *Detector) askOracle(ctx context.Context, img *fetch.Image, local verdict.Verdict) verdict.Verdict {
	content, err := d.oracle.CheckSpoof(ctx, img.Data, img.MIMEType)
	if err != nil {
		return d.oracleFailure(local, err)
	}

	reply, err := ai.ParseSpoofReply(content)
	if err != nil {
		return d.oracleFailure(local, err)
	}

	if reply.ScreenDetected(d.confidence) {
		return verdict.Verdict{
			Fake:       true,
			Reason:     verdict.ScreenDetected,
			Confidence: reply.Confidence,
			BlurScore:  local.BlurScore,
			Brightness: local.Brightness,
		}
	}
	if !reply.Success {
		d.logger.Debug("screen suspected below confidence threshold",
			zap.Float64("confidence", reply.Confidence),
			zap.Float64("threshold", d.confidence))
	}
	return local
}

func (d *Detector) oracleFailure(local verdict.Verdict, err error) verdict.Verdict {
	d.logger.Warn("anti-spoofing check failed",
		zap.String("provider", d.oracle.Name()),
		zap.Bool("fail_closed", d.failClosed),
		zap.Error(err))
	return verdict.Verdict{
		Fake:       d.failClosed,
		Reason:     verdict.ProcessingError,
		Detail:     err.Error(),
		BlurScore:  local.BlurScore,
		Brightness: local.Brightness,
	}
}
