package manifold

import (
	"math/rand/v2"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Product is the Cartesian product of manifolds. Points and tangent vectors
// are the concatenations of those of the factors, and all differentials are
// block diagonal.
type Product struct {
	parts  []Manifold
	ptOff  []int
	dimOff []int
}

var _ Manifold = (*Product)(nil)

// NewProduct returns the product of the given manifolds, in order. It panics
// if no manifolds are given.
func NewProduct(parts ...Manifold) *Product {
	if len(parts) == 0 {
		panic("empty product manifold")
	}
	p := &Product{
		parts:  parts,
		ptOff:  make([]int, len(parts)+1),
		dimOff: make([]int, len(parts)+1),
	}
	for i, m := range parts {
		p.ptOff[i+1] = p.ptOff[i] + m.PointSize()
		p.dimOff[i+1] = p.dimOff[i] + m.Dimension()
	}
	return p
}

// NewPose returns the rigid body pose manifold UnitQuaternion × ℝ³. Points
// are stored as (qx, qy, qz, qw, x, y, z), tangent vectors as a rotation
// vector followed by a translation.
func NewPose() *Product {
	return NewProduct(UnitQuaternion{}, NewEuclidean(3))
}

// Parts returns the factors of the product.
func (p *Product) Parts() []Manifold { return p.parts }

func (p *Product) Dimension() int { return p.dimOff[len(p.parts)] }
func (p *Product) PointSize() int { return p.ptOff[len(p.parts)] }

func (p *Product) String() string {
	var sb strings.Builder
	for i, m := range p.parts {
		if i > 0 {
			sb.WriteString(" × ")
		}
		if s, ok := m.(interface{ String() string }); ok {
			sb.WriteString(s.String())
		} else {
			sb.WriteString("?")
		}
	}
	return sb.String()
}

func (p *Product) pt(i int, x []float64) []float64  { return x[p.ptOff[i]:p.ptOff[i+1]] }
func (p *Product) tan(i int, v []float64) []float64 { return v[p.dimOff[i]:p.dimOff[i+1]] }

// concat assembles a point or tangent vector of the product from per-factor
// results.
func (p *Product) concat(f func(i int, m Manifold) []float64) []float64 {
	var out []float64
	for i, m := range p.parts {
		out = append(out, f(i, m)...)
	}
	return out
}

func (p *Product) Identity() []float64 {
	return p.concat(func(_ int, m Manifold) []float64 { return m.Identity() })
}

func (p *Product) RandomPoint(rng *rand.Rand) []float64 {
	return p.concat(func(_ int, m Manifold) []float64 { return m.RandomPoint(rng) })
}

func (p *Product) Compose(a, b []float64) []float64 {
	return p.concat(func(i int, m Manifold) []float64 { return m.Compose(p.pt(i, a), p.pt(i, b)) })
}

func (p *Product) Log(from, to []float64) []float64 {
	return p.concat(func(i int, m Manifold) []float64 { return m.Log(p.pt(i, from), p.pt(i, to)) })
}

func (p *Product) Exp(x, v []float64) []float64 {
	return p.concat(func(i int, m Manifold) []float64 { return m.Exp(p.pt(i, x), p.tan(i, v)) })
}

func (p *Product) ExpAtIdentity(v []float64) []float64 {
	return p.concat(func(i int, m Manifold) []float64 { return m.ExpAtIdentity(p.tan(i, v)) })
}

// blockDiag places per-factor matrices along the diagonal. rowOff and colOff
// hold the block boundaries.
func (p *Product) blockDiag(rowOff, colOff []int, f func(i int, m Manifold) *mat.Dense) *mat.Dense {
	n := len(p.parts)
	out := mat.NewDense(rowOff[n], colOff[n], nil)
	for i, m := range p.parts {
		blk := out.Slice(rowOff[i], rowOff[i+1], colOff[i], colOff[i+1]).(*mat.Dense)
		blk.Copy(f(i, m))
	}
	return out
}

func (p *Product) DExpAtIdentity(v []float64) *mat.Dense {
	return p.blockDiag(p.ptOff, p.dimOff, func(i int, m Manifold) *mat.Dense {
		return m.DExpAtIdentity(p.tan(i, v))
	})
}

func (p *Product) DExp(x, v []float64) *mat.Dense {
	return p.blockDiag(p.ptOff, p.dimOff, func(i int, m Manifold) *mat.Dense {
		return m.DExp(p.pt(i, x), p.tan(i, v))
	})
}

func (p *Product) DLog(from, to []float64) (dFrom, dTo *mat.Dense) {
	froms := make([]*mat.Dense, len(p.parts))
	tos := make([]*mat.Dense, len(p.parts))
	for i, m := range p.parts {
		froms[i], tos[i] = m.DLog(p.pt(i, from), p.pt(i, to))
	}
	dFrom = p.blockDiag(p.dimOff, p.dimOff, func(i int, _ Manifold) *mat.Dense { return froms[i] })
	dTo = p.blockDiag(p.dimOff, p.dimOff, func(i int, _ Manifold) *mat.Dense { return tos[i] })
	return dFrom, dTo
}

func (p *Product) UpdateInLocalCoordinates(x, delta []float64) {
	for i, m := range p.parts {
		m.UpdateInLocalCoordinates(p.pt(i, x), p.tan(i, delta))
	}
}

func (p *Product) DUpdate(x []float64) *mat.Dense {
	return p.blockDiag(p.ptOff, p.dimOff, func(i int, m Manifold) *mat.Dense {
		return m.DUpdate(p.pt(i, x))
	})
}

// rows returns the jet of factor i. Jacobian rows are restricted to the
// factor's coordinates; columns are kept.
func (p *Product) rows(i int, j Jet, withJacobians bool) Jet {
	out := Jet{Derivs: make([][]float64, len(j.Derivs))}
	for m, d := range j.Derivs {
		out.Derivs[m] = p.pt(i, d)
	}
	if withJacobians {
		out.Jacobians = make([]*mat.Dense, len(j.Jacobians))
		for m, jac := range j.Jacobians {
			_, c := jac.Dims()
			out.Jacobians[m] = jac.Slice(p.ptOff[i], p.ptOff[i+1], 0, c).(*mat.Dense)
		}
	}
	return out
}

func (p *Product) ComposeJet(a, b Jet, withJacobians bool) Jet {
	n := a.Order()
	out := Jet{Derivs: make([][]float64, n+1)}
	for m := range n + 1 {
		out.Derivs[m] = make([]float64, p.PointSize())
	}
	if withJacobians {
		_, c := a.Jacobians[0].Dims()
		out.Jacobians = make([]*mat.Dense, n+1)
		for m := range n + 1 {
			out.Jacobians[m] = mat.NewDense(p.PointSize(), c, nil)
		}
	}
	for i, m := range p.parts {
		part := m.ComposeJet(p.rows(i, a, withJacobians), p.rows(i, b, withJacobians), withJacobians)
		for d := range n + 1 {
			copy(p.pt(i, out.Derivs[d]), part.Derivs[d])
			if withJacobians {
				_, c := part.Jacobians[d].Dims()
				out.Jacobians[d].Slice(p.ptOff[i], p.ptOff[i+1], 0, c).(*mat.Dense).Copy(part.Jacobians[d])
			}
		}
	}
	return out
}

func (p *Product) RayJet(phi, beta []float64, withJacobians bool) Jet {
	n := len(beta) - 1
	parts := make([]Jet, len(p.parts))
	for i, m := range p.parts {
		parts[i] = m.RayJet(p.tan(i, phi), beta, withJacobians)
	}
	out := Jet{Derivs: make([][]float64, n+1)}
	for d := range n + 1 {
		out.Derivs[d] = p.concat(func(i int, _ Manifold) []float64 { return parts[i].Derivs[d] })
	}
	if withJacobians {
		out.Jacobians = make([]*mat.Dense, n+1)
		for d := range n + 1 {
			out.Jacobians[d] = p.blockDiag(p.ptOff, p.dimOff, func(i int, _ Manifold) *mat.Dense {
				return parts[i].Jacobians[d]
			})
		}
	}
	return out
}
