package bspline

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/mat"

	"honnef.co/go/bspline/manifold"
)

// Evaluator evaluates a spline at one point in time. It is obtained from
// [Spline.EvaluatorAt].
//
// An evaluator caches intermediate results and recomputes them after control
// vertices have changed. It must not be used after knots have been inserted
// or removed.
type Evaluator[T Time, M manifold.Manifold] struct {
	spline *Spline[T, M]
	t      T
	// index of the segment containing t
	index int
	u     float64
	pos   T
	// prepared derivative orders
	maxOrder int
	weights  [][]float64
	cumul    [][]float64

	version uint64
	cached  option[manifold.Jet]
	// cached jet with Jacobians
	cachedJac option[manifold.Jet]
}

// newEvaluator returns an evaluator at relative position u in segment i.
func (s *Spline[T, M]) newEvaluator(i int, u float64, maxOrder int) *Evaluator[T, M] {
	e := &Evaluator[T, M]{
		spline:   s,
		index:    i,
		u:        u,
		maxOrder: maxOrder,
		weights:  make([][]float64, maxOrder+1),
		cumul:    make([][]float64, maxOrder+1),
	}
	b := s.basis(i)
	l := s.policy.AsDouble(s.segmentLength(i))
	for d := range maxOrder + 1 {
		// for d ≥ order the weights are zero and basisWeights skips the product
		e.weights[d] = basisWeights(b, d, u, l)
		e.cumul[d] = cumulative(e.weights[d])
	}
	return e
}

// Time returns the time the evaluator evaluates at.
func (e *Evaluator[T, M]) Time() T { return e.t }

// MaxDerivativeOrder returns the highest derivative order the evaluator was
// prepared for.
func (e *Evaluator[T, M]) MaxDerivativeOrder() int { return e.maxOrder }

// Knot returns the start of the segment containing the evaluation time.
func (e *Evaluator[T, M]) Knot() T { return e.spline.knot(e.index) }

// SegmentLength returns the duration of the segment containing the
// evaluation time.
func (e *Evaluator[T, M]) SegmentLength() T {
	return e.spline.segmentLength(e.index)
}

// PositionInSegment returns the duration since the start of the segment.
func (e *Evaluator[T, M]) PositionInSegment() T { return e.pos }

// RelativePositionInSegment returns the position in the segment, normalized
// to [0, 1).
func (e *Evaluator[T, M]) RelativePositionInSegment() float64 { return e.u }

// Window returns the indices of the first and last control vertices that
// influence the spline at the evaluation time.
func (e *Evaluator[T, M]) Window() (first, last int) {
	return e.index - e.spline.order + 1, e.index
}

func (e *Evaluator[T, M]) checkOrder(n int) error {
	if n < 0 {
		panic(fmt.Sprintf("invalid derivative order %d", n))
	}
	if n > e.maxOrder {
		return fmt.Errorf("%w: requested order %d, evaluator prepared for %d", ErrDerivativeOrderExceeded, n, e.maxOrder)
	}
	return nil
}

// BasisWeights returns the n-th time derivative of the values of the basis
// functions of the window's control vertices. Derivatives of order ≥ the
// spline order are zero.
func (e *Evaluator[T, M]) BasisWeights(n int) ([]float64, error) {
	if err := e.checkOrder(n); err != nil {
		return nil, err
	}
	return slices.Clone(e.weights[n]), nil
}

// CumulativeBasisWeights returns the n-th time derivative of the cumulative
// basis functions βⱼ = Σ_{l≥j} bₗ of the window.
func (e *Evaluator[T, M]) CumulativeBasisWeights(n int) ([]float64, error) {
	if err := e.checkOrder(n); err != nil {
		return nil, err
	}
	return slices.Clone(e.cumul[n]), nil
}

// Value returns the spline's value.
func (e *Evaluator[T, M]) Value() []float64 {
	return slices.Clone(e.jet(false).Derivs[0])
}

// Derivative returns the n-th time derivative of the spline's value, in
// embedding coordinates of the manifold. It returns an error wrapping
// [ErrDerivativeOrderExceeded] if n exceeds the order the evaluator was
// prepared for, and panics if n is negative.
func (e *Evaluator[T, M]) Derivative(n int) ([]float64, error) {
	if err := e.checkOrder(n); err != nil {
		return nil, err
	}
	return slices.Clone(e.jet(false).Derivs[n]), nil
}

// Jacobian returns the Jacobian of the n-th time derivative with respect to
// local updates of the window's control vertices. It has one row per
// coordinate of a point and one column per tangent direction of each
// control vertex, with vertices in window order.
func (e *Evaluator[T, M]) Jacobian(n int) (*mat.Dense, error) {
	if err := e.checkOrder(n); err != nil {
		return nil, err
	}
	return mat.DenseCopyOf(e.jet(true).Jacobians[n]), nil
}

func (e *Evaluator[T, M]) jet(withJacobians bool) manifold.Jet {
	if e.version != e.spline.version {
		e.cached.clear()
		e.cachedJac.clear()
		e.version = e.spline.version
	}
	if e.cachedJac.isSet {
		return e.cachedJac.unwrap()
	}
	if !withJacobians && e.cached.isSet {
		return e.cached.unwrap()
	}
	j := e.compute(withJacobians)
	if withJacobians {
		e.cachedJac.set(j)
	} else {
		e.cached.set(j)
	}
	return j
}

// compute folds the window's control vertices into the spline's value
//
//	V = p₀ ∘ Exp(β₁·φ₁) ∘ … ∘ Exp(βₖ₋₁·φₖ₋₁),  φⱼ = Log(pⱼ₋₁, pⱼ)
//
// carrying time derivatives and, optionally, Jacobians along.
func (e *Evaluator[T, M]) compute(withJacobians bool) manifold.Jet {
	s := e.spline
	m := s.manifold
	k := s.order
	n := e.maxOrder
	ps, dim := m.PointSize(), m.Dimension()
	first, _ := e.Window()

	p0 := s.segments.at(first).point
	var jac0 *mat.Dense
	if withJacobians {
		jac0 = mat.NewDense(ps, dim*k, nil)
		jac0.Slice(0, ps, 0, dim).(*mat.Dense).Copy(m.DUpdate(p0))
	}
	acc := manifold.ConstantJet(p0, n, jac0)

	beta := make([]float64, n+1)
	for j := 1; j < k; j++ {
		prev := s.segments.at(first + j - 1).point
		next := s.segments.at(first + j).point
		phi := m.Log(prev, next)
		for d := range n + 1 {
			beta[d] = e.cumul[d][j]
		}
		ray := m.RayJet(phi, beta, withJacobians)
		if withJacobians {
			dFrom, dTo := m.DLog(prev, next)
			for d := range n + 1 {
				full := mat.NewDense(ps, dim*k, nil)
				full.Slice(0, ps, (j-1)*dim, j*dim).(*mat.Dense).Mul(ray.Jacobians[d], dFrom)
				full.Slice(0, ps, j*dim, (j+1)*dim).(*mat.Dense).Mul(ray.Jacobians[d], dTo)
				ray.Jacobians[d] = full
			}
		}
		acc = m.ComposeJet(acc, ray, withJacobians)
	}
	return acc
}
