package manifold

import (
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

func diff(t *testing.T, want, got any, opts ...cmp.Option) {
	t.Helper()
	if d := cmp.Diff(want, got, opts...); d != "" {
		t.Error(d)
	}
}

var approx = cmpopts.EquateApprox(0, 1e-9)

func manifolds() []struct {
	name string
	m    Manifold
} {
	return []struct {
		name string
		m    Manifold
	}{
		{"euclidean", NewEuclidean(3)},
		{"quaternion", UnitQuaternion{}},
		{"pose", NewPose()},
	}
}

func randomTangent(rng *rand.Rand, dim int, scale float64) []float64 {
	v := make([]float64, dim)
	for i := range v {
		v[i] = scale * (2*rng.Float64() - 1)
	}
	return v
}

// numJacobian returns the central difference Jacobian of f at x.
func numJacobian(f func(x []float64) []float64, x []float64) *mat.Dense {
	rows := len(f(x))
	j := mat.NewDense(rows, len(x), nil)
	fd.Jacobian(j, func(y, x []float64) { copy(y, f(x)) }, x, &fd.JacobianSettings{Formula: fd.Central})
	return j
}

// numDerivative returns the central difference derivative of f at t.
func numDerivative(f func(t float64) []float64, t float64) []float64 {
	n := len(f(t))
	out := make([]float64, n)
	for i := range n {
		out[i] = fd.Derivative(func(t float64) float64 { return f(t)[i] }, t, &fd.Settings{Formula: fd.Central})
	}
	return out
}

func matrixApprox(t *testing.T, want, got mat.Matrix, tol float64) {
	t.Helper()
	if !mat.EqualApprox(want, got, tol) {
		t.Errorf("matrices differ:\nwant %v\ngot  %v", mat.Formatted(want, mat.Squeeze()), mat.Formatted(got, mat.Squeeze()))
	}
}

func vectorApprox(t *testing.T, want, got []float64, tol float64) {
	t.Helper()
	diff(t, want, got, cmpopts.EquateApprox(0, tol))
}

// polyBeta returns the value and time derivatives up to n of the cubic with
// the given coefficients, at t.
func polyBeta(c [4]float64, t float64, n int) []float64 {
	out := make([]float64, n+1)
	for d := range n + 1 {
		for r := d; r < 4; r++ {
			x := c[r]
			for m := r - d + 1; m <= r; m++ {
				x *= float64(m)
			}
			for range r - d {
				x *= t
			}
			out[d] += x
		}
	}
	return out
}
