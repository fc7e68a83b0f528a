package manifold

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Below this angle the closed forms switch to their Taylor expansions.
const smallAngle = 1e-6

// skew returns the cross product matrix [v]ₓ.
func skew(v []float64) *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		0, -v[2], v[1],
		v[2], 0, -v[0],
		-v[1], v[0], 0,
	})
}

func norm3(v []float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// so3Combine returns I + a·[v]ₓ + b·[v]ₓ².
func so3Combine(v []float64, a, b float64) *mat.Dense {
	s := skew(v)
	var s2 mat.Dense
	s2.Mul(s, s)
	out := identity(3)
	s.Scale(a, s)
	s2.Scale(b, &s2)
	out.Add(out, s)
	out.Add(out, &s2)
	return out
}

// LeftJacobian returns the left Jacobian of SO(3) at the rotation vector v:
// Exp(v + δ) ≈ Exp(J·δ)·Exp(v).
func LeftJacobian(v []float64) *mat.Dense {
	th := norm3(v)
	th2 := th * th
	var a, b float64
	if th < smallAngle {
		a = 0.5 - th2/24
		b = 1.0/6 - th2/120
	} else {
		s, c := math.Sincos(th)
		a = (1 - c) / th2
		b = (th - s) / (th2 * th)
	}
	return so3Combine(v, a, b)
}

// InverseLeftJacobian returns the inverse of [LeftJacobian].
//
// It is singular at rotation angles of 2π.
func InverseLeftJacobian(v []float64) *mat.Dense {
	th := norm3(v)
	th2 := th * th
	var b float64
	if th < smallAngle {
		b = 1.0/12 + th2/720
	} else {
		s, c := math.Sincos(th)
		b = 1/th2 - (1+c)/(2*th*s)
	}
	return so3Combine(v, -0.5, b)
}

// InverseRightJacobian returns the inverse of the right Jacobian of SO(3),
// satisfying Exp(v)·Exp(δ) ≈ Exp(v + J⁻¹·δ).
func InverseRightJacobian(v []float64) *mat.Dense {
	return InverseLeftJacobian([]float64{-v[0], -v[1], -v[2]})
}
