// Package report summarises a session's fitness series for display.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/five82/foilwatch/internal/optimizer"
)

// Summary describes the fitness values received in one session.
type Summary struct {
	Count       int
	FirstIndex  float64
	LastIndex   float64
	First       float64
	Last        float64
	Min         float64
	Max         float64
	Mean        float64
	StdDev      float64
	Improvement float64 // Last - First
}

// Summarize computes a Summary. The zero Summary is returned for no points.
func Summarize(points []optimizer.DataPoint) Summary {
	if len(points) == 0 {
		return Summary{}
	}
	values := Values(points)
	mean, std := stat.MeanStdDev(values, nil)
	if len(values) < 2 {
		std = 0
	}
	first, last := points[0], points[len(points)-1]
	return Summary{
		Count:       len(points),
		FirstIndex:  first.Index,
		LastIndex:   last.Index,
		First:       first.Value,
		Last:        last.Value,
		Min:         floats.Min(values),
		Max:         floats.Max(values),
		Mean:        mean,
		StdDev:      std,
		Improvement: last.Value - first.Value,
	}
}

// Values extracts the fitness values in delivery order.
func Values(points []optimizer.DataPoint) []float64 {
	return lo.Map(points, func(p optimizer.DataPoint, _ int) float64 { return p.Value })
}

// String renders the summary on one line.
func (s Summary) String() string {
	if s.Count == 0 {
		return "no fitness points received"
	}
	return fmt.Sprintf("%d points, generations %g-%g, fitness %.4g -> %.4g (min %.4g, max %.4g, mean %.4g, sd %.3g)",
		s.Count, s.FirstIndex, s.LastIndex, s.First, s.Last, s.Min, s.Max, s.Mean, s.StdDev)
}

// WriteHistogram draws a text histogram of the fitness values with the given
// number of bins and bar width. Nothing is written for fewer than two points.
func WriteHistogram(w io.Writer, points []optimizer.DataPoint, bins, width int) error {
	if len(points) < 2 {
		return nil
	}
	if bins <= 0 {
		bins = 10
	}
	if width <= 0 {
		width = 40
	}
	hist := histogram.Hist(bins, Values(points))
	return histogram.Fprint(w, hist, histogram.Linear(width))
}

// Histogram returns WriteHistogram's output as a string.
func Histogram(points []optimizer.DataPoint, bins, width int) string {
	var b strings.Builder
	if err := WriteHistogram(&b, points, bins, width); err != nil {
		return ""
	}
	return b.String()
}
