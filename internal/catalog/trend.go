package catalog

import "fmt"

// TrendLength is the number of points in every product's trend curve.
const TrendLength = 50

// TrendCurve is a fixed-length cyclic sequence of normalized price-pressure
// values. Positions are wrapped with Advance; callers never do modulo
// arithmetic themselves.
type TrendCurve struct {
	values [TrendLength]float64
}

// NewTrendCurve copies values into a curve. len(values) must be TrendLength.
func NewTrendCurve(values []float64) (TrendCurve, error) {
	var c TrendCurve
	if len(values) != TrendLength {
		return c, fmt.Errorf("%w: got %d points, want %d", ErrTrendLength, len(values), TrendLength)
	}
	copy(c.values[:], values)
	return c, nil
}

// Len returns the number of points on the curve.
func (c TrendCurve) Len() int {
	return TrendLength
}

// At returns the value at position i, or 0 when i is out of range.
func (c TrendCurve) At(i int) float64 {
	if i < 0 || i >= TrendLength {
		return 0
	}
	return c.values[i]
}

// Advance returns the position following i, wrapping to 0 after the last point.
func (c TrendCurve) Advance(i int) int {
	i++
	if i >= TrendLength || i < 0 {
		return 0
	}
	return i
}

// Values returns a copy of the curve points.
func (c TrendCurve) Values() []float64 {
	out := make([]float64, TrendLength)
	copy(out, c.values[:])
	return out
}
