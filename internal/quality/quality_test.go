package quality

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"testing"

	"github.com/kozaktomas/attendance-check/internal/verdict"
)

// Helper functions for creating test images

func createTestImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := range width {
		for y := range height {
			img.Set(x, y, c)
		}
	}
	return img
}

func createCheckerboard(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := range width {
		for y := range height {
			if (x+y)%2 == 0 {
				img.Set(x, y, color.White)
			} else {
				img.Set(x, y, color.Black)
			}
		}
	}
	return img
}

// createStripes alternates two gray levels column by column.
func createStripes(width, height int, a, b uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := range width {
		level := a
		if x%2 == 1 {
			level = b
		}
		for y := range height {
			img.Set(x, y, color.RGBA{level, level, level, 255})
		}
	}
	return img
}

func encodePNG(img image.Image) []byte {
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

func encodeJPEG(img image.Image) []byte {
	var buf bytes.Buffer
	jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	return buf.Bytes()
}

func defaultClassifier() *Classifier {
	return New(Thresholds{Blur: 50, Brightness: 200, GlareDetection: true})
}

func TestReflect101(t *testing.T) {
	tests := []struct {
		i, n, expected int
	}{
		{-1, 5, 1},
		{-2, 5, 2},
		{0, 5, 0},
		{4, 5, 4},
		{5, 5, 3},
		{6, 5, 2},
		{-1, 2, 1},
		{2, 2, 0},
		{-1, 1, 0},
		{1, 1, 0},
	}

	for _, tc := range tests {
		if got := reflect101(tc.i, tc.n); got != tc.expected {
			t.Errorf("reflect101(%d, %d) = %d; want %d", tc.i, tc.n, got, tc.expected)
		}
	}
}

func TestMeasure_UniformImageHasZeroBlurScore(t *testing.T) {
	m, err := Measure(encodePNG(createTestImage(40, 30, color.RGBA{128, 128, 128, 255})))
	if err != nil {
		t.Fatalf("Measure failed: %v", err)
	}

	if m.BlurScore != 0 {
		t.Errorf("expected blur score 0 for uniform image, got %f", m.BlurScore)
	}
	if m.Brightness != 128 {
		t.Errorf("expected brightness 128, got %f", m.Brightness)
	}
	if m.Width != 40 || m.Height != 30 {
		t.Errorf("expected 40x30, got %dx%d", m.Width, m.Height)
	}
}

func TestMeasure_Checkerboard(t *testing.T) {
	m, err := Measure(encodePNG(createCheckerboard(10, 10)))
	if err != nil {
		t.Fatalf("Measure failed: %v", err)
	}

	// Every pixel has four opposite neighbours: |response| = 4*255.
	expected := 1020.0 * 1020.0
	if math.Abs(m.BlurScore-expected) > 1e-6 {
		t.Errorf("expected blur score %f, got %f", expected, m.BlurScore)
	}
	if m.Brightness != 127.5 {
		t.Errorf("expected brightness 127.5, got %f", m.Brightness)
	}
}

func TestMeasure_BrightnessUsesMaxChannel(t *testing.T) {
	m, err := Measure(encodePNG(createTestImage(8, 8, color.RGBA{250, 10, 10, 255})))
	if err != nil {
		t.Fatalf("Measure failed: %v", err)
	}
	if m.Brightness != 250 {
		t.Errorf("expected brightness 250 (max channel), got %f", m.Brightness)
	}
}

func TestMeasure_InvalidData(t *testing.T) {
	_, err := Measure([]byte("not an image"))
	if !errors.Is(err, ErrDecode) {
		t.Errorf("expected ErrDecode, got %v", err)
	}
}

func TestClassify_UniformGrayIsBlurry(t *testing.T) {
	v := defaultClassifier().Classify(encodeJPEG(createTestImage(100, 100, color.RGBA{128, 128, 128, 255})))

	if !v.Fake {
		t.Error("expected uniform gray image to be fake")
	}
	if v.Reason != verdict.BlurryImage {
		t.Errorf("expected BlurryImage, got %s", v.Reason)
	}
}

func TestClassify_BlurWinsOverGlare(t *testing.T) {
	v := defaultClassifier().Classify(encodePNG(createTestImage(50, 50, color.White)))

	if !v.Fake || v.Reason != verdict.BlurryImage {
		t.Errorf("expected fake BlurryImage for white image, got %+v", v)
	}
	if v.Brightness != 255 {
		t.Errorf("expected brightness 255, got %f", v.Brightness)
	}
}

func TestClassify_Glare(t *testing.T) {
	data := encodePNG(createStripes(20, 20, 255, 180))

	v := defaultClassifier().Classify(data)
	if !v.Fake || v.Reason != verdict.GlareDetected {
		t.Errorf("expected fake GlareDetected, got %+v", v)
	}
	if v.BlurScore != 22500 {
		t.Errorf("expected blur score 22500, got %f", v.BlurScore)
	}
	if v.Brightness != 217.5 {
		t.Errorf("expected brightness 217.5, got %f", v.Brightness)
	}

	noGlare := New(Thresholds{Blur: 50, Brightness: 200, GlareDetection: false})
	v = noGlare.Classify(data)
	if v.Fake || v.Reason != verdict.LiveImage {
		t.Errorf("expected LiveImage with glare detection disabled, got %+v", v)
	}
}

func TestClassify_LiveImage(t *testing.T) {
	v := defaultClassifier().Classify(encodePNG(createCheckerboard(20, 20)))

	if v.Fake {
		t.Errorf("expected checkerboard to be live, got %+v", v)
	}
	if v.Reason != verdict.LiveImage {
		t.Errorf("expected LiveImage, got %s", v.Reason)
	}
}

func TestClassify_DecodeFailureIsNotFake(t *testing.T) {
	v := defaultClassifier().Classify([]byte{0xff, 0xd8, 0x00})

	if v.Fake {
		t.Error("decode failure must never be fake")
	}
	if v.Reason != verdict.DecodeFailed {
		t.Errorf("expected DecodeFailed, got %s", v.Reason)
	}
}

func TestJudge_Boundaries(t *testing.T) {
	c := defaultClassifier()

	tests := []struct {
		name       string
		blur       float64
		brightness float64
		fake       bool
		reason     verdict.Reason
	}{
		{"just below blur threshold", 49.99, 100, true, verdict.BlurryImage},
		{"at blur threshold", 50, 100, false, verdict.LiveImage},
		{"at brightness threshold", 80, 200, false, verdict.LiveImage},
		{"just above brightness threshold", 80, 200.01, true, verdict.GlareDetected},
		{"blurry and bright", 10, 250, true, verdict.BlurryImage},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := c.Judge(&Metrics{BlurScore: tc.blur, Brightness: tc.brightness})
			if v.Fake != tc.fake || v.Reason != tc.reason {
				t.Errorf("Judge(%v, %v) = %v/%s; want %v/%s", tc.blur, tc.brightness, v.Fake, v.Reason, tc.fake, tc.reason)
			}
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	data := encodeJPEG(createCheckerboard(64, 48))
	c := defaultClassifier()

	first := c.Classify(data)
	second := c.Classify(data)
	if first != second {
		t.Errorf("expected identical verdicts, got %+v and %+v", first, second)
	}
}
