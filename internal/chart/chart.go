// Package chart renders the PNG charts embedded in attendance spreadsheets.
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("no data to plot")

// pixelsPerInch matches the default resolution of the PNG canvas.
const pixelsPerInch = 96

// Point is one labelled value on the X axis.
type Point struct {
	Label string
	Value float64
}

// Size is the rendered image size in pixels.
type Size struct {
	Width  int
	Height int
}

func (s Size) lengths() (vg.Length, vg.Length) {
	return vg.Length(s.Width) * vg.Inch / pixelsPerInch,
		vg.Length(s.Height) * vg.Inch / pixelsPerInch
}

// TeamLine plots total rider appearances per team as a line with markers.
func TeamLine(points []Point, size Size) ([]byte, error) {
	if len(points) == 0 {
		return nil, ErrNoData
	}

	p := plot.New()
	p.Title.Text = "Total Rider Appearances per Team"
	p.X.Label.Text = "Team Name"
	p.Y.Label.Text = "Total Appearances"
	p.Add(plotter.NewGrid())

	xys := make(plotter.XYs, len(points))
	for i, pt := range points {
		xys[i].X = float64(i)
		xys[i].Y = pt.Value
	}

	line, markers, err := plotter.NewLinePoints(xys)
	if err != nil {
		return nil, fmt.Errorf("failed to build line: %w", err)
	}
	markers.Shape = draw.CircleGlyph{}
	p.Add(line, markers)

	nominal(p, points)
	p.Y.Min = 0
	return render(p, size)
}

// ReasonBars plots how many records ended with each detection reason.
func ReasonBars(points []Point, size Size) ([]byte, error) {
	if len(points) == 0 {
		return nil, ErrNoData
	}

	p := plot.New()
	p.Title.Text = "Detection Reasons"
	p.Y.Label.Text = "Records"
	p.Add(plotter.NewGrid())

	values := make(plotter.Values, len(points))
	for i, pt := range points {
		values[i] = pt.Value
	}

	bars, err := plotter.NewBarChart(values, vg.Points(24))
	if err != nil {
		return nil, fmt.Errorf("failed to build bars: %w", err)
	}
	p.Add(bars)

	nominal(p, points)
	return render(p, size)
}

// nominal labels the X axis with point labels rotated like the dashboard charts.
func nominal(p *plot.Plot, points []Point) {
	labels := make([]string, len(points))
	for i, pt := range points {
		labels[i] = pt.Label
	}
	p.NominalX(labels...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
}

func render(p *plot.Plot, size Size) ([]byte, error) {
	w, h := size.lengths()
	wt, err := p.WriterTo(w, h, "png")
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode chart: %w", err)
	}
	return buf.Bytes(), nil
}
