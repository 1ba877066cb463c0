// Package quality implements the local fake-selfie heuristic: a Laplacian
// blur score and a mean brightness score compared against fixed thresholds.
package quality

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/kozaktomas/attendance-check/internal/verdict"
)

// ErrDecode is returned when image bytes cannot be decoded.
var ErrDecode = errors.New("unable to decode image")

// Thresholds configures the classifier.
type Thresholds struct {
	Blur           float64 // Laplacian variance below this is blurry
	Brightness     float64 // mean HSV value above this is glare
	GlareDetection bool
}

// Metrics are the raw scores of one image.
type Metrics struct {
	Width      int
	Height     int
	BlurScore  float64 // variance of the Laplacian response
	Brightness float64 // mean of max(R, G, B), 0-255
}

// Classifier applies fixed thresholds to image metrics.
type Classifier struct {
	thresholds Thresholds
}

// New creates a Classifier.
func New(t Thresholds) *Classifier {
	return &Classifier{thresholds: t}
}

// Thresholds returns the configured thresholds.
func (c *Classifier) Thresholds() Thresholds {
	return c.thresholds
}

// Classify decodes data and returns the local verdict. Decode failures are
// never fake.
func (c *Classifier) Classify(data []byte) verdict.Verdict {
	m, err := Measure(data)
	if err != nil {
		return verdict.Failed(verdict.DecodeFailed, err)
	}
	return c.Judge(m)
}

// Judge applies the thresholds to already computed metrics. Blur wins over
// glare.
func (c *Classifier) Judge(m *Metrics) verdict.Verdict {
	v := verdict.Live(m.BlurScore, m.Brightness)
	switch {
	case m.BlurScore < c.thresholds.Blur:
		v.Fake = true
		v.Reason = verdict.BlurryImage
	case c.thresholds.GlareDetection && m.Brightness > c.thresholds.Brightness:
		v.Fake = true
		v.Reason = verdict.GlareDetected
	}
	return v
}

// Measure decodes an image and computes its blur and brightness scores.
func Measure(data []byte) (*Metrics, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return MeasureImage(img), nil
}

// MeasureImage computes the scores of a decoded image.
func MeasureImage(img image.Image) *Metrics {
	gray, value := channels(img)
	bounds := img.Bounds()

	return &Metrics{
		Width:      bounds.Dx(),
		Height:     bounds.Dy(),
		BlurScore:  laplacianVariance(gray, bounds.Dx(), bounds.Dy()),
		Brightness: mean(value),
	}
}

// channels returns the 8-bit luma and the HSV value channel of img in
// row-major order. Alpha is ignored.
func channels(img image.Image) (gray []float64, value []float64) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	gray = make([]float64, w*h)
	value = make([]float64, w*h)

	for y := range h {
		for x := range w {
			c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			r, g, b := float64(c.R), float64(c.G), float64(c.B)
			// ITU-R BT.601 luma formula, rounded to 8 bits.
			gray[y*w+x] = math.Round(0.299*r + 0.587*g + 0.114*b)
			value[y*w+x] = max(r, g, b)
		}
	}
	return gray, value
}

// reflect101 maps an out-of-range index back into [0, n) mirroring around
// the edge pixel (dcb|abcd|cba).
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*(n-1) - i
		}
	}
	return i
}

// laplacianVariance convolves with the 4-neighbour kernel
// [0 1 0; 1 -4 1; 0 1 0] and returns the population variance of the response.
func laplacianVariance(gray []float64, w, h int) float64 {
	if w == 0 || h == 0 {
		return 0
	}
	at := func(x, y int) float64 {
		return gray[reflect101(y, h)*w+reflect101(x, w)]
	}

	var sum, sumSq float64
	for y := range h {
		for x := range w {
			l := at(x-1, y) + at(x+1, y) + at(x, y-1) + at(x, y+1) - 4*at(x, y)
			sum += l
			sumSq += l * l
		}
	}
	n := float64(w * h)
	m := sum / n
	return sumSq/n - m*m
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
