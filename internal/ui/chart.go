package ui

import (
	"math"
	"strings"

	"github.com/five82/foilwatch/internal/optimizer"
	"github.com/five82/foilwatch/internal/report"
)

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// resample reduces values to at most width buckets by averaging, keeping
// delivery order. Shorter input is returned unchanged.
func resample(values []float64, width int) []float64 {
	if width <= 0 {
		return nil
	}
	if len(values) <= width {
		return values
	}
	out := make([]float64, width)
	for i := range out {
		start := i * len(values) / width
		end := (i + 1) * len(values) / width
		sum := 0.0
		for _, v := range values[start:end] {
			sum += v
		}
		out[i] = sum / float64(end-start)
	}
	return out
}

// sparkline draws the fitness series as one row of block glyphs scaled
// between the series minimum and maximum.
func sparkline(points []optimizer.DataPoint, width int) string {
	values := resample(report.Values(points), width)
	if len(values) == 0 {
		return ""
	}
	low, high := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		low = math.Min(low, v)
		high = math.Max(high, v)
	}

	var b strings.Builder
	top := len(sparkBlocks) - 1
	for _, v := range values {
		idx := top / 2
		if high > low {
			idx = int(math.Round((v - low) / (high - low) * float64(top)))
		}
		b.WriteRune(sparkBlocks[idx])
	}
	return b.String()
}
