package bspline

import (
	"fmt"
	"slices"

	"honnef.co/go/bspline/manifold"
)

// DesignVariable is a parameter that a nonlinear least-squares solver can
// optimize by applying minimal updates and undoing them.
type DesignVariable interface {
	// MinimalDimensions returns the number of degrees of freedom.
	MinimalDimensions() int
	// Update applies a perturbation of length MinimalDimensions.
	Update(delta []float64) error
	// RevertUpdate undoes the most recent Update.
	RevertUpdate() error
	// Value returns a copy of the parameter's current value.
	Value() []float64
}

// ControlVertexVariable exposes a spline's control vertex as a
// [DesignVariable]. Updates are applied in the tangent space of the vertex,
// using the manifold's local update rule.
//
// Only one level of undo is kept: RevertUpdate restores the vertex as it was
// before the most recent Update, and a second RevertUpdate without an
// intervening Update fails with [ErrNothingToRevert].
type ControlVertexVariable[T Time] struct {
	seg      *Segment[T]
	manifold manifold.Manifold
	version  *uint64
	saved    []float64
}

var _ DesignVariable = (*ControlVertexVariable[float64])(nil)

// Knot returns the knot of the wrapped control vertex.
func (v *ControlVertexVariable[T]) Knot() T { return v.seg.knot }

func (v *ControlVertexVariable[T]) MinimalDimensions() int {
	return v.manifold.Dimension()
}

func (v *ControlVertexVariable[T]) Update(delta []float64) error {
	if v.version == nil {
		return ErrDetached
	}
	if len(delta) != v.manifold.Dimension() {
		return fmt.Errorf("%w: update has %d components, design variable has %d", ErrDimensionMismatch, len(delta), v.manifold.Dimension())
	}
	if v.saved == nil {
		v.saved = make([]float64, len(v.seg.point))
	}
	copy(v.saved, v.seg.point)
	v.manifold.UpdateInLocalCoordinates(v.seg.point, delta)
	*v.version++
	return nil
}

func (v *ControlVertexVariable[T]) RevertUpdate() error {
	if v.version == nil {
		return ErrDetached
	}
	if v.saved == nil {
		return ErrNothingToRevert
	}
	copy(v.seg.point, v.saved)
	v.saved = nil
	*v.version++
	return nil
}

func (v *ControlVertexVariable[T]) Value() []float64 {
	return slices.Clone(v.seg.point)
}

// detach disconnects the segment's design variable, if any, from the spline.
func (s *Segment[T]) detach() {
	if s.dv != nil {
		s.dv.version = nil
		s.dv = nil
	}
}

// NumDesignVariables returns the number of control vertices.
func (s *Spline[T, M]) NumDesignVariables() int { return s.segments.len() }

// DesignVariable returns the design variable of the i-th control vertex.
// Repeated calls return the same variable.
func (s *Spline[T, M]) DesignVariable(i int) *ControlVertexVariable[T] {
	seg := s.segments.at(i)
	if seg.dv == nil {
		seg.dv = &ControlVertexVariable[T]{
			seg:      seg,
			manifold: s.manifold,
			version:  &s.version,
		}
	}
	return seg.dv
}

// DesignVariables returns the design variables of the control vertices that
// influence the spline at time t, in window order. These are the variables
// the columns of [Evaluator.Jacobian] refer to.
func (s *Spline[T, M]) DesignVariables(t T) ([]DesignVariable, error) {
	i, err := s.evaluableSegment(t)
	if err != nil {
		return nil, err
	}
	out := make([]DesignVariable, 0, s.order)
	for j := i - s.order + 1; j <= i; j++ {
		out = append(out, s.DesignVariable(j))
	}
	return out, nil
}
