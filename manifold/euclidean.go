package manifold

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Euclidean is the vector space ℝⁿ with addition as its group operation.
//
// Splines over Euclidean space reduce to classical B-splines: the cumulative
// composition telescopes into the usual weighted sum of control vertices.
type Euclidean struct {
	dim int
}

var _ Manifold = Euclidean{}

// NewEuclidean returns ℝⁿ. It panics if n < 1.
func NewEuclidean(n int) Euclidean {
	if n < 1 {
		panic(fmt.Sprintf("invalid Euclidean dimension %d", n))
	}
	return Euclidean{dim: n}
}

func (e Euclidean) Dimension() int { return e.dim }
func (e Euclidean) PointSize() int { return e.dim }

func (e Euclidean) String() string {
	return fmt.Sprintf("ℝ^%d", e.dim)
}

func (e Euclidean) Identity() []float64 {
	return make([]float64, e.dim)
}

// RandomPoint returns a point with coordinates drawn uniformly from [-1, 1].
func (e Euclidean) RandomPoint(rng *rand.Rand) []float64 {
	u := distuv.Uniform{Min: -1, Max: 1, Src: rng}
	p := make([]float64, e.dim)
	for i := range p {
		p[i] = u.Rand()
	}
	return p
}

func (e Euclidean) Compose(a, b []float64) []float64 {
	return floats.AddTo(make([]float64, e.dim), a, b)
}

func (e Euclidean) Log(from, to []float64) []float64 {
	return floats.SubTo(make([]float64, e.dim), to, from)
}

func (e Euclidean) Exp(p, v []float64) []float64 {
	return floats.AddTo(make([]float64, e.dim), p, v)
}

func (e Euclidean) ExpAtIdentity(v []float64) []float64 {
	return append([]float64(nil), v...)
}

func (e Euclidean) DExpAtIdentity(v []float64) *mat.Dense {
	return identity(e.dim)
}

func (e Euclidean) DExp(p, v []float64) *mat.Dense {
	return identity(e.dim)
}

func (e Euclidean) DLog(from, to []float64) (dFrom, dTo *mat.Dense) {
	dFrom = identity(e.dim)
	dFrom.Scale(-1, dFrom)
	return dFrom, identity(e.dim)
}

func (e Euclidean) UpdateInLocalCoordinates(p, delta []float64) {
	floats.Add(p, delta)
}

func (e Euclidean) DUpdate(p []float64) *mat.Dense {
	return identity(e.dim)
}

// ComposeJet adds the two curves; derivatives and Jacobians add as well.
func (e Euclidean) ComposeJet(a, b Jet, withJacobians bool) Jet {
	n := a.Order()
	out := Jet{Derivs: make([][]float64, n+1)}
	for m := range n + 1 {
		out.Derivs[m] = floats.AddTo(make([]float64, e.dim), a.Derivs[m], b.Derivs[m])
	}
	if withJacobians {
		out.Jacobians = make([]*mat.Dense, n+1)
		for m := range n + 1 {
			var j mat.Dense
			j.Add(a.Jacobians[m], b.Jacobians[m])
			out.Jacobians[m] = &j
		}
	}
	return out
}

// RayJet returns the jet of β(t)·phi.
func (e Euclidean) RayJet(phi, beta []float64, withJacobians bool) Jet {
	n := len(beta) - 1
	out := Jet{Derivs: make([][]float64, n+1)}
	for m := range n + 1 {
		out.Derivs[m] = floats.ScaleTo(make([]float64, e.dim), beta[m], phi)
	}
	if withJacobians {
		out.Jacobians = make([]*mat.Dense, n+1)
		for m := range n + 1 {
			j := identity(e.dim)
			j.Scale(beta[m], j)
			out.Jacobians[m] = j
		}
	}
	return out
}
