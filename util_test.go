package bspline

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"

	"honnef.co/go/bspline/manifold"
)

func diff(t *testing.T, want, got any, opts ...cmp.Option) {
	t.Helper()
	if d := cmp.Diff(want, got, opts...); d != "" {
		t.Error(d)
	}
}

func approx(margin float64) cmp.Option {
	return cmpopts.EquateApprox(0, margin)
}

func manifolds() []struct {
	name string
	m    manifold.Manifold
} {
	return []struct {
		name string
		m    manifold.Manifold
	}{
		{"euclidean", manifold.NewEuclidean(3)},
		{"quaternion", manifold.UnitQuaternion{}},
		{"pose", manifold.NewPose()},
	}
}

// randomWalk returns n points in which consecutive points are close to each
// other.
func randomWalk(rng *rand.Rand, m manifold.Manifold, n int) [][]float64 {
	out := make([][]float64, n)
	out[0] = m.RandomPoint(rng)
	for i := 1; i < n; i++ {
		v := make([]float64, m.Dimension())
		for j := range v {
			v[j] = 2*rng.Float64() - 1
		}
		out[i] = m.Exp(out[i-1], v)
	}
	return out
}

// randomKnots returns n strictly increasing knots with irregular spacing.
func randomKnots(rng *rand.Rand, n int) []float64 {
	out := make([]float64, n)
	t := 0.0
	for i := range out {
		t += 0.2 + 0.6*rng.Float64()
		out[i] = t
	}
	return out
}

func randomSpline[M manifold.Manifold](t *testing.T, m M, order, n int, seed uint64) *Spline[float64, M] {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, seed+1))
	s := New[float64](m, Seconds{}, order)
	points := randomWalk(rng, m, n)
	for i, tm := range randomKnots(rng, n) {
		require.NoError(t, s.AddControlVertex(tm, points[i]))
	}
	require.NoError(t, s.Init())
	return s
}

// sampleTimes returns n times in the evaluable range, including both ends.
func sampleTimes[M manifold.Manifold](s *Spline[float64, M], n int) []float64 {
	lo, hi := s.TimeInterval()
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + (hi-lo)*float64(i)/float64(n-1)
	}
	out[n-1] = hi
	return out
}

// numericalJacobian perturbs the control vertices of the window at t through
// their design variables and differentiates f numerically.
func numericalJacobian[M manifold.Manifold](t *testing.T, s *Spline[float64, M], at float64, f func(*Evaluator[float64, M]) []float64) *mat.Dense {
	t.Helper()
	dvs, err := s.DesignVariables(at)
	require.NoError(t, err)
	dim := s.Manifold().Dimension()
	eval := func(delta []float64) []float64 {
		for j, dv := range dvs {
			require.NoError(t, dv.Update(delta[j*dim:(j+1)*dim]))
		}
		e, err := s.EvaluatorAt(at, s.Order()+1)
		require.NoError(t, err)
		out := slices.Clone(f(e))
		for _, dv := range dvs {
			require.NoError(t, dv.RevertUpdate())
		}
		return out
	}
	x := make([]float64, dim*len(dvs))
	rows := len(eval(x))
	j := mat.NewDense(rows, len(x), nil)
	fd.Jacobian(j, func(y, x []float64) { copy(y, eval(x)) }, x, &fd.JacobianSettings{Formula: fd.Central})
	return j
}

func matrixApprox(t *testing.T, want, got mat.Matrix, tol float64) {
	t.Helper()
	if !mat.EqualApprox(want, got, tol) {
		t.Errorf("matrices differ:\nwant %v\ngot  %v", mat.Formatted(want, mat.Squeeze()), mat.Formatted(got, mat.Squeeze()))
	}
}
