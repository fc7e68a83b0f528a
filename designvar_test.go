package bspline

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"honnef.co/go/bspline/manifold"
)

func TestUpdateRevert(t *testing.T) {
	for _, tt := range manifolds() {
		t.Run(tt.name, func(t *testing.T) {
			s := randomSpline(t, tt.m, 4, 10, 41)
			times := sampleTimes(s, 9)
			evals := make([]*Evaluator[float64, manifold.Manifold], len(times))
			snapshot := func() [][]float64 {
				var out [][]float64
				for i, tm := range times {
					if evals[i] == nil {
						e, err := s.EvaluatorAt(tm, 2)
						require.NoError(t, err)
						evals[i] = e
					}
					for n := range 3 {
						d, err := evals[i].Derivative(n)
						require.NoError(t, err)
						out = append(out, d)
					}
				}
				return out
			}

			before := snapshot()
			dv := s.DesignVariable(5)
			require.Same(t, dv, s.DesignVariable(5))
			require.Equal(t, tt.m.Dimension(), dv.MinimalDimensions())
			point := dv.Value()

			delta := make([]float64, tt.m.Dimension())
			for i := range delta {
				delta[i] = 0.1 * float64(i+1)
			}
			require.NoError(t, dv.Update(delta))
			require.NotEqual(t, point, dv.Value())
			require.NotEqual(t, before, snapshot())

			require.NoError(t, dv.RevertUpdate())
			require.Equal(t, point, dv.Value())
			require.Equal(t, point, s.ControlVertex(5))
			require.Equal(t, before, snapshot())

			require.ErrorIs(t, dv.RevertUpdate(), ErrNothingToRevert)
			require.ErrorIs(t, dv.Update(delta[:len(delta)-1]), ErrDimensionMismatch)
			require.Equal(t, point, dv.Value())
		})
	}
}

func TestUpdateIsLocal(t *testing.T) {
	var q manifold.UnitQuaternion
	s := randomSpline(t, q, 3, 8, 43)
	dv := s.DesignVariable(2)
	p := dv.Value()
	delta := []float64{0.01, -0.02, 0.03}
	require.NoError(t, dv.Update(delta))
	diff(t, q.Exp(p, delta), dv.Value(), approx(1e-15))

	// a second update without revert keeps only one level of undo
	mid := dv.Value()
	require.NoError(t, dv.Update(delta))
	require.NoError(t, dv.RevertUpdate())
	require.Equal(t, mid, dv.Value())
}

func TestDesignVariablesWindow(t *testing.T) {
	s := randomSpline(t, manifold.NewPose(), 4, 11, 47)
	require.Equal(t, 11, s.NumDesignVariables())
	for _, tm := range sampleTimes(s, 13) {
		dvs, err := s.DesignVariables(tm)
		require.NoError(t, err)
		e, err := s.EvaluatorAt(tm, 0)
		require.NoError(t, err)
		first, last := e.Window()
		require.Len(t, dvs, last-first+1)
		for j, dv := range dvs {
			require.Same(t, s.DesignVariable(first+j), dv)
			require.Equal(t, s.Segment(first+j).Knot(), dv.(*ControlVertexVariable[float64]).Knot())
		}
	}
	_, err := s.DesignVariables(s.MaxTime() + 1)
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestDetachedDesignVariable(t *testing.T) {
	s := randomSpline(t, manifold.NewEuclidean(2), 2, 6, 53)
	last := s.DesignVariable(s.NumDesignVariables() - 1)
	keep := s.DesignVariable(0)
	require.NoError(t, s.RemoveSegment())
	require.ErrorIs(t, last.Update([]float64{1, 1}), ErrDetached)
	require.ErrorIs(t, last.RevertUpdate(), ErrDetached)
	require.NoError(t, keep.Update([]float64{1, 1}))

	p := slices.Clone(s.ControlVertex(0))
	require.NoError(t, s.InitConstantUniformSpline(0, 1, 3, []float64{0, 0}))
	require.ErrorIs(t, keep.RevertUpdate(), ErrDetached)
	require.NotEqual(t, p, s.ControlVertex(0))
}
