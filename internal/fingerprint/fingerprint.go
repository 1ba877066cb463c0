// Package fingerprint computes perceptual hashes of selfies so that the same
// photo submitted for different riders can be spotted.
package fingerprint

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"math/bits"
	"slices"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	dctSize = 32 // pHash works on a 32x32 thumbnail
	lowFreq = 8  // and keeps the top-left 8x8 DCT block
)

// Hash holds the perceptual (DCT) and difference hashes of one image.
type Hash struct {
	P uint64
	D uint64
}

func (h Hash) String() string {
	return fmt.Sprintf("%016x/%016x", h.P, h.D)
}

// Compute decodes an image and hashes it.
func Compute(data []byte) (Hash, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Hash{}, fmt.Errorf("failed to decode image: %w", err)
	}
	return Of(img), nil
}

// Of hashes a decoded image.
func Of(img image.Image) Hash {
	return Hash{P: pHash(img), D: dHash(img)}
}

// Distance is the Hamming distance between two 64-bit hashes.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// Near reports whether two images' pHashes differ in at most threshold bits.
func Near(a, b Hash, threshold int) bool {
	return Distance(a.P, b.P) <= threshold
}

// pHash sets one bit per low-frequency DCT coefficient above the median.
// The DC term is replaced by the next coefficient so 64 values remain.
func pHash(img image.Image) uint64 {
	gray := luma(thumbnail(img, dctSize, dctSize))
	coeffs := dct2(gray, dctSize)

	values := make([]float64, 0, lowFreq*lowFreq)
	for u := range lowFreq {
		for v := range lowFreq {
			if u == 0 && v == 0 {
				continue
			}
			values = append(values, coeffs[u*dctSize+v])
		}
	}
	values = append(values, coeffs[lowFreq*dctSize])

	m := median(values)
	var hash uint64
	for i, c := range values {
		if c > m {
			hash |= 1 << (63 - i)
		}
	}
	return hash
}

// dHash compares horizontally adjacent pixels of a 9x8 thumbnail.
func dHash(img image.Image) uint64 {
	const w, h = 9, 8
	gray := luma(thumbnail(img, w, h))

	var hash uint64
	bit := 63
	for y := range h {
		for x := range w - 1 {
			if gray[y*w+x] > gray[y*w+x+1] {
				hash |= 1 << bit
			}
			bit--
		}
	}
	return hash
}

func thumbnail(img image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}

// luma returns BT.601 luma in row-major order.
func luma(img *image.RGBA) []float64 {
	b := img.Bounds()
	out := make([]float64, 0, b.Dx()*b.Dy())
	for y := range b.Dy() {
		for x := range b.Dx() {
			c := img.RGBAAt(x, y)
			out = append(out, 0.299*float64(c.R)+0.587*float64(c.G)+0.114*float64(c.B))
		}
	}
	return out
}

// dct2 is an unnormalized 2D DCT-II of an n x n row-major matrix; the
// result is indexed [u*n+v] with u the vertical frequency.
func dct2(in []float64, n int) []float64 {
	cos := make([]float64, n*n)
	for k := range n {
		for i := range n {
			cos[k*n+i] = math.Cos(math.Pi * float64(k) * (2*float64(i) + 1) / float64(2*n))
		}
	}

	out := make([]float64, n*n)
	for u := range n {
		for v := range n {
			var sum float64
			for y := range n {
				row := in[y*n : (y+1)*n]
				cu := cos[u*n+y]
				for x, p := range row {
					sum += p * cu * cos[v*n+x]
				}
			}
			out[u*n+v] = sum
		}
	}
	return out
}

func median(values []float64) float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}
