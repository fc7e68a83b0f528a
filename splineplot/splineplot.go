// Package splineplot renders the components of a spline and its derivatives
// for visual inspection.
package splineplot

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"

	"honnef.co/go/bspline"
	"honnef.co/go/bspline/manifold"
)

// Plot samples the derivative of the given order of s at evenly spaced
// times across its evaluable range, and plots each coordinate as a line.
// Order 0 plots the spline's value. The x axis shows the time since the
// start of the range.
func Plot[T bspline.Time, M manifold.Manifold](s *bspline.Spline[T, M], derivativeOrder, samples int) (*plot.Plot, error) {
	if samples < 2 {
		return nil, fmt.Errorf("need at least 2 samples, got %d", samples)
	}
	if s.NumKnots() < s.MinimumKnotsRequired() {
		return nil, fmt.Errorf("plotting spline: %w", bspline.ErrOrderViolation)
	}
	policy := s.TimePolicy()
	lo, hi := s.TimeInterval()

	lines := make([]plotter.XYs, s.Manifold().PointSize())
	for c := range lines {
		lines[c] = make(plotter.XYs, samples)
	}
	for i := range samples {
		t := policy.Interpolate(lo, hi, samples-1, i)
		e, err := s.EvaluatorAt(t, derivativeOrder)
		if err != nil {
			return nil, err
		}
		d, err := e.Derivative(derivativeOrder)
		if err != nil {
			return nil, err
		}
		x := policy.AsDouble(policy.Sub(t, lo))
		for c, y := range d {
			lines[c][i].X = x
			lines[c][i].Y = y
		}
	}

	p := plot.New()
	if derivativeOrder == 0 {
		p.Title.Text = "Spline value"
	} else {
		p.Title.Text = fmt.Sprintf("Spline derivative of order %d", derivativeOrder)
	}
	p.X.Label.Text = "t"
	p.Y.Label.Text = "coordinate"
	p.Add(plotter.NewGrid())

	args := make([]any, 0, 2*len(lines))
	for c, xys := range lines {
		args = append(args, fmt.Sprintf("x%d", c), xys)
	}
	if err := plotutil.AddLines(p, args...); err != nil {
		return nil, err
	}
	return p, nil
}
