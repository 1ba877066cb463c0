package attendance

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/kozaktomas/attendance-check/internal/ai"
	"github.com/kozaktomas/attendance-check/internal/config"
	"github.com/kozaktomas/attendance-check/internal/fetch"
	"github.com/kozaktomas/attendance-check/internal/quality"
	"github.com/kozaktomas/attendance-check/internal/verdict"
)

// stubFetcher serves images by URL.
type stubFetcher struct {
	images map[string][]byte
	calls  int
}

func (f *stubFetcher) Fetch(_ context.Context, rawURL string) (*fetch.Image, error) {
	f.calls++
	data, ok := f.images[rawURL]
	if !ok {
		return nil, &fetch.StatusError{URL: rawURL, StatusCode: 404}
	}
	return &fetch.Image{Data: data, MIMEType: "image/png"}, nil
}

// stubOracle returns a fixed reply.
type stubOracle struct {
	reply string
	err   error
	calls int
}

func (o *stubOracle) Name() string { return "stub" }
func (o *stubOracle) CheckSpoof(context.Context, []byte, string) (string, error) {
	o.calls++
	return o.reply, o.err
}
func (o *stubOracle) GetUsage() ai.Usage { return ai.Usage{} }
func (o *stubOracle) ResetUsage()        {}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func uniform(t *testing.T, level uint8) []byte {
	img := image.NewGray(image.Rect(0, 0, 16, 16))
	for i := range img.Pix {
		img.Pix[i] = level
	}
	return pngBytes(t, img)
}

func checkerboard(t *testing.T) []byte {
	img := image.NewGray(image.Rect(0, 0, 16, 16))
	for y := range 16 {
		for x := range 16 {
			if (x+y)%2 == 0 {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return pngBytes(t, img)
}

func stripes(t *testing.T) []byte {
	img := image.NewGray(image.Rect(0, 0, 16, 16))
	for y := range 16 {
		for x := range 16 {
			level := uint8(255)
			if x%2 == 1 {
				level = 180
			}
			img.SetGray(x, y, color.Gray{Y: level})
		}
	}
	return pngBytes(t, img)
}

func newTestDetector(t *testing.T, fetcher *stubFetcher, opts ...DetectorOption) *Detector {
	t.Helper()
	classifier := quality.New(quality.Thresholds{Blur: 50, Brightness: 200, GlareDetection: true})
	return NewDetector(fetcher, classifier, opts...)
}

func TestDetector_LocalHeuristic(t *testing.T) {
	fetcher := &stubFetcher{images: map[string][]byte{
		"https://img/gray.png":    uniform(t, 128),
		"https://img/sharp.png":   checkerboard(t),
		"https://img/glare.png":   stripes(t),
		"https://img/garbage.png": []byte("not an image"),
	}}
	d := newTestDetector(t, fetcher)

	tests := []struct {
		url        string
		wantFake   bool
		wantReason verdict.Reason
	}{
		{"", false, verdict.InvalidURL},
		{"nan", false, verdict.InvalidURL},
		{"ftp://img/gray.png", false, verdict.InvalidURL},
		{"https://img/missing.png", false, verdict.DownloadFailed},
		{"https://img/garbage.png", false, verdict.DecodeFailed},
		{"https://img/gray.png", true, verdict.BlurryImage},
		{"https://img/glare.png", true, verdict.GlareDetected},
		{"https://img/sharp.png", false, verdict.LiveImage},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			v := d.Detect(context.Background(), tt.url)
			if v.Fake != tt.wantFake || v.Reason != tt.wantReason {
				t.Errorf("Detect(%q) = %v fake=%v; want %v fake=%v", tt.url, v.Reason, v.Fake, tt.wantReason, tt.wantFake)
			}
		})
	}
}

func TestDetector_InvalidURLNeverFetched(t *testing.T) {
	fetcher := &stubFetcher{}
	d := newTestDetector(t, fetcher)
	d.Detect(context.Background(), "   ")
	if fetcher.calls != 0 {
		t.Errorf("expected no fetch for invalid URL, got %d", fetcher.calls)
	}
}

func TestDetector_Oracle(t *testing.T) {
	tests := []struct {
		name       string
		reply      string
		err        error
		policy     string
		wantFake   bool
		wantReason verdict.Reason
	}{
		{"genuine", `{"success": true}`, nil, config.FailOpen, false, verdict.LiveImage},
		{"screen high confidence", `{"success": false, "confidence": 0.9}`, nil, config.FailOpen, true, verdict.ScreenDetected},
		{"screen low confidence", `{"success": false, "confidence": 0.3}`, nil, config.FailOpen, false, verdict.LiveImage},
		{"fenced reply", "```json\n{\"success\": false, \"confidence\": 0.7}\n```", nil, config.FailOpen, true, verdict.ScreenDetected},
		{"malformed fail open", `I think it's real`, nil, config.FailOpen, false, verdict.ProcessingError},
		{"malformed fail closed", `I think it's real`, nil, config.FailClosed, true, verdict.ProcessingError},
		{"transport fail open", "", errors.New("connection refused"), config.FailOpen, false, verdict.ProcessingError},
		{"transport fail closed", "", errors.New("connection refused"), config.FailClosed, true, verdict.ProcessingError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := &stubFetcher{images: map[string][]byte{"https://img/sharp.png": checkerboard(t)}}
			oracle := &stubOracle{reply: tt.reply, err: tt.err}
			d := newTestDetector(t, fetcher, WithOracle(oracle, 0.7, tt.policy))

			v := d.Detect(context.Background(), "https://img/sharp.png")
			if v.Fake != tt.wantFake || v.Reason != tt.wantReason {
				t.Errorf("got %v fake=%v; want %v fake=%v", v.Reason, v.Fake, tt.wantReason, tt.wantFake)
			}
			if v.BlurScore == 0 {
				t.Error("expected local metrics to be kept")
			}
			if tt.wantReason == verdict.ScreenDetected && v.Confidence < 0.7 {
				t.Errorf("expected confidence to be recorded, got %v", v.Confidence)
			}
		})
	}
}

func TestDetector_OracleSkippedForLocalFakes(t *testing.T) {
	fetcher := &stubFetcher{images: map[string][]byte{
		"https://img/gray.png":  uniform(t, 128),
		"https://img/glare.png": stripes(t),
	}}
	oracle := &stubOracle{reply: `{"success": true}`}
	d := newTestDetector(t, fetcher, WithOracle(oracle, 0.7, config.FailOpen))

	if v := d.Detect(context.Background(), "https://img/gray.png"); v.Reason != verdict.BlurryImage {
		t.Errorf("expected BlurryImage, got %v", v.Reason)
	}
	if v := d.Detect(context.Background(), "https://img/glare.png"); v.Reason != verdict.GlareDetected {
		t.Errorf("expected GlareDetected, got %v", v.Reason)
	}
	if oracle.calls != 0 {
		t.Errorf("expected oracle not to be called, got %d calls", oracle.calls)
	}
}
