package manifold

import (
	"math"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestRoundTrip(t *testing.T) {
	for _, tt := range manifolds() {
		t.Run(tt.name, func(t *testing.T) {
			rng := rand.New(rand.NewPCG(1, 2))
			m := tt.m
			for range 50 {
				p := m.RandomPoint(rng)
				q := m.RandomPoint(rng)
				v := randomTangent(rng, m.Dimension(), 1)

				diff(t, v, m.Log(p, m.Exp(p, v)), approx)
				diff(t, q, m.Exp(p, m.Log(p, q)), approx)
				diff(t, m.Exp(m.Identity(), v), m.ExpAtIdentity(v), approx)
				diff(t, p, m.Compose(m.Identity(), p), approx)
				diff(t, p, m.Compose(p, m.Identity()), approx)
			}
		})
	}
}

func TestExpIsComposition(t *testing.T) {
	for _, tt := range manifolds() {
		t.Run(tt.name, func(t *testing.T) {
			rng := rand.New(rand.NewPCG(3, 4))
			m := tt.m
			for range 20 {
				p := m.RandomPoint(rng)
				v := randomTangent(rng, m.Dimension(), 1)
				diff(t, m.Compose(p, m.ExpAtIdentity(v)), m.Exp(p, v), approx)

				u := slices.Clone(p)
				m.UpdateInLocalCoordinates(u, v)
				diff(t, m.Exp(p, v), u, approx)
			}
		})
	}
}

func TestDifferentials(t *testing.T) {
	for _, tt := range manifolds() {
		t.Run(tt.name, func(t *testing.T) {
			rng := rand.New(rand.NewPCG(5, 6))
			m := tt.m
			for range 20 {
				p := m.RandomPoint(rng)
				q := m.RandomPoint(rng)
				v := randomTangent(rng, m.Dimension(), 1)
				zero := make([]float64, m.Dimension())

				matrixApprox(t, numJacobian(m.ExpAtIdentity, v), m.DExpAtIdentity(v), 1e-6)
				matrixApprox(t, numJacobian(m.ExpAtIdentity, zero), m.DExpAtIdentity(zero), 1e-6)
				matrixApprox(t, numJacobian(func(v []float64) []float64 { return m.Exp(p, v) }, v), m.DExp(p, v), 1e-6)

				update := func(x []float64) func([]float64) []float64 {
					return func(d []float64) []float64 {
						x := slices.Clone(x)
						m.UpdateInLocalCoordinates(x, d)
						return x
					}
				}
				matrixApprox(t, numJacobian(update(p), zero), m.DUpdate(p), 1e-6)

				dFrom, dTo := m.DLog(p, q)
				numFrom := numJacobian(func(d []float64) []float64 { return m.Log(update(p)(d), q) }, zero)
				numTo := numJacobian(func(d []float64) []float64 { return m.Log(p, update(q)(d)) }, zero)
				matrixApprox(t, numFrom, dFrom, 1e-6)
				matrixApprox(t, numTo, dTo, 1e-6)
			}
		})
	}
}

// jetConsistent checks that each derivative of the jet returned by f is the
// time derivative of the previous one.
func jetConsistent(t *testing.T, f func(t float64) Jet, at float64) {
	t.Helper()
	j := f(at)
	for m := range j.Order() {
		num := numDerivative(func(t float64) []float64 { return f(t).Derivs[m] }, at)
		vectorApprox(t, num, j.Derivs[m+1], 1e-6)
	}
}

func TestRayJet(t *testing.T) {
	coef := [4]float64{0.3, 0.8, -0.5, 0.2}
	for _, tt := range manifolds() {
		t.Run(tt.name, func(t *testing.T) {
			rng := rand.New(rand.NewPCG(7, 8))
			m := tt.m
			for range 10 {
				phi := randomTangent(rng, m.Dimension(), 2)
				at := rng.Float64()

				j := m.RayJet(phi, polyBeta(coef, at, 4), true)
				b := polyBeta(coef, at, 0)[0]
				diff(t, m.ExpAtIdentity(scaled(phi, b)), j.Derivs[0], approx)
				jetConsistent(t, func(t float64) Jet { return m.RayJet(phi, polyBeta(coef, t, 4), false) }, at)

				for d := range 5 {
					num := numJacobian(func(phi []float64) []float64 {
						return m.RayJet(phi, polyBeta(coef, at, 4), false).Derivs[d]
					}, phi)
					matrixApprox(t, num, j.Jacobians[d], 1e-6)
				}
			}
		})
	}
}

func TestComposeJet(t *testing.T) {
	ca := [4]float64{0.1, 1, 0.5, -0.3}
	cb := [4]float64{0.9, -0.4, 0.2, 0.1}
	for _, tt := range manifolds() {
		t.Run(tt.name, func(t *testing.T) {
			rng := rand.New(rand.NewPCG(9, 10))
			m := tt.m
			for range 10 {
				p := m.RandomPoint(rng)
				pa := randomTangent(rng, m.Dimension(), 1)
				pb := randomTangent(rng, m.Dimension(), 1)
				at := rng.Float64()

				f := func(t float64) Jet {
					c := ConstantJet(p, 3, nil)
					c = m.ComposeJet(c, m.RayJet(pa, polyBeta(ca, t, 3), false), false)
					return m.ComposeJet(c, m.RayJet(pb, polyBeta(cb, t, 3), false), false)
				}
				want := m.Compose(m.Compose(p, m.ExpAtIdentity(scaled(pa, polyBeta(ca, at, 0)[0]))), m.ExpAtIdentity(scaled(pb, polyBeta(cb, at, 0)[0])))
				diff(t, want, f(at).Derivs[0], approx)
				jetConsistent(t, f, at)
			}
		})
	}
}

func scaled(v []float64, s float64) []float64 {
	out := make([]float64, len(v))
	for i := range v {
		out[i] = s * v[i]
	}
	return out
}

func TestQuaternionMatrices(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 12))
	var u UnitQuaternion
	for range 20 {
		p := u.RandomPoint(rng)
		q := u.RandomPoint(rng)
		var lq, rq mat.VecDense
		lq.MulVec(QuaternionLeftMatrix(p), mat.NewVecDense(4, q))
		rq.MulVec(QuaternionRightMatrix(q), mat.NewVecDense(4, p))
		diff(t, u.Compose(p, q), lq.RawVector().Data, approx)
		diff(t, u.Compose(p, q), rq.RawVector().Data, approx)
	}
}

func TestQuaternionLog(t *testing.T) {
	var u UnitQuaternion
	tests := []struct {
		name string
		q    []float64
		want []float64
	}{
		{"identity", []float64{0, 0, 0, 1}, []float64{0, 0, 0}},
		{"half turn", []float64{1, 0, 0, 0}, []float64{math.Pi, 0, 0}},
		{"full turn", []float64{0, 0, 0, -1}, []float64{2 * math.Pi, 0, 0}},
		{"tiny", []float64{1e-9, 0, 0, 1}, []float64{2e-9, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diff(t, tt.want, u.Log(u.Identity(), tt.q), approx)
		})
	}
}

func TestAlignHemisphere(t *testing.T) {
	var u UnitQuaternion
	rng := rand.New(rand.NewPCG(31, 32))
	for range 20 {
		ref := u.RandomPoint(rng)
		q := u.Exp(ref, []float64{0.3, -0.2, 0.1})
		neg := slices.Clone(q)
		for i := range neg {
			neg[i] = -neg[i]
		}
		require.Greater(t, norm3(u.Log(ref, neg)), math.Pi)

		u.AlignHemisphere(ref, neg)
		diff(t, q, neg, approx)
		aligned := slices.Clone(q)
		u.AlignHemisphere(ref, aligned)
		require.Equal(t, q, aligned)
		require.LessOrEqual(t, norm3(u.Log(ref, aligned)), math.Pi)
	}
}

func TestSO3Jacobians(t *testing.T) {
	rng := rand.New(rand.NewPCG(13, 14))
	for _, scale := range []float64{1e-8, 1e-3, 1, 3} {
		v := randomTangent(rng, 3, scale)
		var prod mat.Dense
		prod.Mul(LeftJacobian(v), InverseLeftJacobian(v))
		matrixApprox(t, identity(3), &prod, 1e-9)

		var jr mat.Dense
		jr.Mul(InverseRightJacobian(v), LeftJacobian(scaled(v, -1)))
		matrixApprox(t, identity(3), &jr, 1e-9)
	}

	// the closed forms and their expansions agree around the switch
	below := []float64{0, 0, smallAngle * 0.999}
	above := []float64{0, 0, smallAngle * 1.001}
	matrixApprox(t, LeftJacobian(below), LeftJacobian(above), 1e-8)
	matrixApprox(t, InverseLeftJacobian(below), InverseLeftJacobian(above), 1e-8)
}

func TestPartialBell(t *testing.T) {
	// With all arguments 1, B(m, l) are Stirling numbers of the second kind.
	ones := []float64{0, 1, 1, 1, 1, 1}
	b := PartialBell(ones, 5)
	want := [][]float64{
		{1},
		{0, 1},
		{0, 1, 1},
		{0, 1, 3, 1},
		{0, 1, 7, 6, 1},
		{0, 1, 15, 25, 10, 1},
	}
	diff(t, want, b)

	// Only the first derivative is nonzero for linear β.
	lin := PartialBell([]float64{0, 2, 0, 0}, 3)
	diff(t, [][]float64{{1}, {0, 2}, {0, 0, 4}, {0, 0, 0, 8}}, lin)
}

func TestProduct(t *testing.T) {
	pose := NewPose()
	require.Equal(t, 6, pose.Dimension())
	require.Equal(t, 7, pose.PointSize())
	require.Equal(t, "S³ × ℝ^3", pose.String())
	diff(t, []float64{0, 0, 0, 1, 0, 0, 0}, pose.Identity())
	require.Panics(t, func() { NewProduct() })
	require.Panics(t, func() { NewEuclidean(0) })
}
