package bspline

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/mat"
)

// Gauss–Legendre nodes per segment. The quadrature is exact for Euclidean
// splines of order up to 32.
const integralNodes = 16

// Integral returns the integral of the spline's value, in embedding
// coordinates, over [t1, t2]. Both times must lie in the evaluable range. If
// t2 < t1 the result is negated.
func (s *Spline[T, M]) Integral(t1, t2 T) ([]float64, error) {
	out, err := s.IntegralFunc(t1, t2, 0, func(e *Evaluator[T, M]) []float64 {
		return e.Value()
	})
	if err == nil && out == nil {
		out = make([]float64, s.manifold.PointSize())
	}
	return out, err
}

// IntegralFunc integrates f over [t1, t2] with Gauss–Legendre quadrature on
// every segment the interval touches. f is called with evaluators prepared
// for derivatives up to maxDerivative, and must return vectors of the same
// length on every call. For integer time types, the evaluators' times are
// truncated to the nearest tick towards the segment start.
//
// Both times must lie in the evaluable range. If t2 < t1 the result is
// negated. An empty interval yields nil.
func (s *Spline[T, M]) IntegralFunc(t1, t2 T, maxDerivative int, f func(*Evaluator[T, M]) []float64) ([]float64, error) {
	if maxDerivative < 0 {
		panic(fmt.Sprintf("invalid derivative order %d", maxDerivative))
	}
	sign := 1.0
	if t2 < t1 {
		t1, t2 = t2, t1
		sign = -1
	}
	i1, err := s.evaluableSegment(t1)
	if err != nil {
		return nil, err
	}
	i2, err := s.evaluableSegment(t2)
	if err != nil {
		return nil, err
	}

	var out []float64
	x := make([]float64, integralNodes)
	w := make([]float64, integralNodes)
	for i := i1; i <= i2; i++ {
		length := s.segmentLength(i)
		lo, hi := 0.0, 1.0
		if i == i1 {
			lo = s.policy.Ratio(s.policy.Sub(t1, s.knot(i)), length)
		}
		if i == i2 {
			hi = s.policy.Ratio(s.policy.Sub(t2, s.knot(i)), length)
		}
		if hi <= lo {
			continue
		}
		quad.Legendre{}.FixedLocations(x, w, lo, hi)
		l := s.policy.AsDouble(length)
		for n := range x {
			e := s.newEvaluator(i, x[n], maxDerivative)
			e.pos = T(x[n] * float64(length))
			e.t = s.knot(i) + e.pos
			v := f(e)
			if out == nil {
				out = make([]float64, len(v))
			} else if len(v) != len(out) {
				return nil, fmt.Errorf("%w: integrand returned %d values, previously %d", ErrDimensionMismatch, len(v), len(out))
			}
			floats.AddScaled(out, sign*w[n]*l, v)
		}
	}
	return out, nil
}

// TotalIntegral integrates the spline over its whole evaluable range.
func (s *Spline[T, M]) TotalIntegral() ([]float64, error) {
	if err := s.checkUsable(); err != nil {
		return nil, fmt.Errorf("integrating spline: %w", err)
	}
	return s.Integral(s.MinTime(), s.MaxTime())
}

// validSegment checks that segment i lies in the evaluable range.
func (s *Spline[T, M]) validSegment(i int) error {
	if err := s.checkUsable(); err != nil {
		return err
	}
	if lo, hi := s.order-1, s.segments.len()-s.order-1; i < lo || i > hi {
		return fmt.Errorf("%w: segment %d is not in [%d, %d]", ErrOutOfRange, i, lo, hi)
	}
	return nil
}

// SegmentDerivativeMatrix returns the order×order matrix D of segment i that
// differentiates polynomials in the power basis of the segment: if a holds
// the coefficients of 1, u, u², … then D·a holds those of the time
// derivative. D(r, r+1) = (r+1)/L for a segment of length L.
func (s *Spline[T, M]) SegmentDerivativeMatrix(i int) (*mat.Dense, error) {
	if err := s.validSegment(i); err != nil {
		return nil, err
	}
	return derivativeMatrix(s.order, s.policy.AsDouble(s.segmentLength(i))), nil
}

// SegmentGramMatrix returns the order×order matrix V of segment i holding
// the integrals over the segment of products of power basis functions,
// V(r, c) = ∫ uʳ·uᶜ dt = L/(r+c+1).
func (s *Spline[T, M]) SegmentGramMatrix(i int) (*mat.Dense, error) {
	if err := s.validSegment(i); err != nil {
		return nil, err
	}
	return gramMatrix(s.order, s.policy.AsDouble(s.segmentLength(i))), nil
}

// SegmentQuadraticIntegral returns the order×order matrix Q of segment i
// such that for a scalar Euclidean spline with window coefficients c,
//
//	∫ (dⁿf/dtⁿ)² dt = cᵀ·Q·c
//
// over the segment, where n is derivativeOrder. Summed over segments and
// coordinates, these matrices form the quadratic smoothness penalties used
// when fitting splines.
func (s *Spline[T, M]) SegmentQuadraticIntegral(i, derivativeOrder int) (*mat.Dense, error) {
	if derivativeOrder < 0 {
		panic(fmt.Sprintf("invalid derivative order %d", derivativeOrder))
	}
	if err := s.validSegment(i); err != nil {
		return nil, err
	}
	k := s.order
	l := s.policy.AsDouble(s.segmentLength(i))
	if derivativeOrder >= k {
		return mat.NewDense(k, k, nil), nil
	}

	// A = Dⁿ·M maps window coefficients to power basis coefficients of the
	// n-th derivative.
	d := derivativeMatrix(k, l)
	a := mat.DenseCopyOf(s.basis(i))
	for range derivativeOrder {
		var next mat.Dense
		next.Mul(d, a)
		a = &next
	}
	var va, q mat.Dense
	va.Mul(gramMatrix(k, l), a)
	q.Mul(a.T(), &va)
	return &q, nil
}

func derivativeMatrix(k int, l float64) *mat.Dense {
	d := mat.NewDense(k, k, nil)
	for r := range k - 1 {
		d.Set(r, r+1, float64(r+1)/l)
	}
	return d
}

func gramMatrix(k int, l float64) *mat.Dense {
	v := mat.NewDense(k, k, nil)
	for r := range k {
		for c := range k {
			v.Set(r, c, l/float64(r+c+1))
		}
	}
	return v
}
