package catalog

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// TrendOptions shapes a generated trend curve.
type TrendOptions struct {
	Octaves     int
	Radius      float64 // radius of the sampling circle in noise space; larger is busier
	Persistence float64
	Stretch     bool // rescale so the curve spans the full [0, 1] band
}

// DefaultTrendOptions returns settings that give one or two broad swings per loop.
func DefaultTrendOptions() TrendOptions {
	return TrendOptions{
		Octaves:     3,
		Radius:      1.2,
		Persistence: 0.5,
		Stretch:     true,
	}
}

// GenerateTrend builds a seamless TrendCurve from 2D simplex noise sampled
// around a circle, so the last point flows back into the first.
func GenerateTrend(seed int64, opts TrendOptions) TrendCurve {
	if opts.Octaves < 1 {
		opts.Octaves = 1
	}
	noise := opensimplex.NewNormalized(seed)

	var c TrendCurve
	for i := 0; i < TrendLength; i++ {
		theta := 2 * math.Pi * float64(i) / TrendLength
		x := opts.Radius * math.Cos(theta)
		y := opts.Radius * math.Sin(theta)
		c.values[i] = octaveNoise(noise, x, y, opts.Octaves, 1, opts.Persistence)
	}

	if opts.Stretch {
		stretch(&c)
	}
	for i := range c.values {
		c.values[i] = math.Max(0, math.Min(1, c.values[i]))
	}
	return c
}

// octaveNoise layers several noise frequencies; the result stays in the
// range of the underlying normalized noise.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

func stretch(c *TrendCurve) {
	lo, hi := c.values[0], c.values[0]
	for _, v := range c.values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi-lo < 1e-9 {
		return
	}
	for i, v := range c.values {
		c.values[i] = (v - lo) / (hi - lo)
	}
}
