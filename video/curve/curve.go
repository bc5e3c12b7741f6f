// Package curve compiles tone curves, given as a few control points, into
// 256-entry lookup tables that can be applied to every sample of a frame.
package curve

import (
	"encoding/json"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/interp"
)

var (
	ErrTooFewPoints  = errors.New("a curve needs at least two control points")
	ErrNotIncreasing = errors.New("control point inputs must be strictly increasing")
	ErrOutOfRange    = errors.New("control point outside [0,255]")
)

// ControlPoint is one knot of a tone curve.
type ControlPoint struct {
	In  int
	Out int
}

// P is shorthand for a ControlPoint literal.
func P(in, out int) ControlPoint {
	return ControlPoint{In: in, Out: out}
}

var ErrBadPoint = errors.New("control point must be [in, out]")

// UnmarshalJSON accepts the compact form [in, out].
func (p *ControlPoint) UnmarshalJSON(b []byte) error {
	var pair []int
	if err := json.Unmarshal(b, &pair); err != nil {
		return fmt.Errorf("%w: %v", ErrBadPoint, err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("%w: got %d values", ErrBadPoint, len(pair))
	}
	p.In, p.Out = pair[0], pair[1]
	return nil
}

func (p ControlPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{p.In, p.Out})
}

// Func maps an input sample value to an output value. Outputs are not
// clamped; NewLookupTable does that.
type Func func(x float64) float64

// Validate checks that points describe a usable curve.
func Validate(points []ControlPoint) error {
	if len(points) < 2 {
		return fmt.Errorf("%w: got %d", ErrTooFewPoints, len(points))
	}
	for i, p := range points {
		if p.In < 0 || p.In > 255 || p.Out < 0 || p.Out > 255 {
			return fmt.Errorf("%w: point %d is (%d,%d)", ErrOutOfRange, i, p.In, p.Out)
		}
		if i > 0 && p.In <= points[i-1].In {
			return fmt.Errorf("%w: point %d input %d follows %d", ErrNotIncreasing, i, p.In, points[i-1].In)
		}
	}
	return nil
}

// CurveFunc interpolates through points: linearly for two or three points,
// with a not-a-knot cubic spline for four or more. Inputs beyond the first
// or last knot hold that knot's output.
func CurveFunc(points []ControlPoint) (Func, error) {
	if err := Validate(points); err != nil {
		return nil, err
	}
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i], ys[i] = float64(p.In), float64(p.Out)
	}
	var fp interp.FittablePredictor = &interp.PiecewiseLinear{}
	if len(points) >= 4 {
		fp = &interp.NotAKnotCubic{}
	}
	if err := fp.Fit(xs, ys); err != nil {
		return nil, fmt.Errorf("failed to fit curve: %w", err)
	}
	return hold(xs, ys, fp), nil
}

// hold clamps the input to the knot range before predicting.
func hold(xs, ys []float64, p interp.Predictor) Func {
	last := len(xs) - 1
	return func(x float64) float64 {
		switch {
		case x <= xs[0]:
			return ys[0]
		case x >= xs[last]:
			return ys[last]
		}
		return p.Predict(x)
	}
}

// Compose returns a function applying first, then second. A nil side yields
// the other unchanged.
func Compose(first, second Func) Func {
	if first == nil {
		return second
	}
	if second == nil {
		return first
	}
	return func(x float64) float64 {
		return second(first(x))
	}
}
