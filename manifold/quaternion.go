package manifold

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/stat/distuv"
)

// UnitQuaternion is the group of unit quaternions under the Hamilton
// product, the double cover of SO(3).
//
// Points are stored as (x, y, z, w). Tangent vectors are rotation vectors:
// ExpAtIdentity(v) is the rotation by |v| radians about v. Local updates act
// on the right, p ← p⊗ExpAtIdentity(δ), so δ is expressed in the frame of p.
//
// q and -q are distinct points that represent the same rotation. Log
// returns angles in [0, 2π), so between neighbouring control vertices in
// opposite hemispheres a spline turns almost a full revolution, and the
// Jacobians of Log grow without bound as the angle approaches 2π. Align
// measured orientations with [UnitQuaternion.AlignHemisphere] before using
// them as control vertices.
type UnitQuaternion struct{}

var _ Manifold = UnitQuaternion{}

func (UnitQuaternion) Dimension() int { return 3 }
func (UnitQuaternion) PointSize() int { return 4 }

func (UnitQuaternion) String() string { return "S³" }

func (UnitQuaternion) Identity() []float64 {
	return []float64{0, 0, 0, 1}
}

// RandomPoint returns a uniformly distributed unit quaternion.
func (UnitQuaternion) RandomPoint(rng *rand.Rand) []float64 {
	n := distuv.Normal{Mu: 0, Sigma: 1, Src: rng}
	for {
		q := quat.Number{Real: n.Rand(), Imag: n.Rand(), Jmag: n.Rand(), Kmag: n.Rand()}
		if abs := quat.Abs(q); abs > 1e-6 {
			return fromQuat(quat.Scale(1/abs, q))
		}
	}
}

func (UnitQuaternion) Compose(a, b []float64) []float64 {
	return fromQuat(quat.Mul(toQuat(a), toQuat(b)))
}

// Log returns the rotation vector of from⁻¹⊗to.
func (UnitQuaternion) Log(from, to []float64) []float64 {
	return quatLog(quat.Mul(quat.Conj(toQuat(from)), toQuat(to)))
}

// AlignHemisphere negates q in place if it lies in the hemisphere opposite
// ref, so that Log(ref, q) has an angle of at most π. The rotation q
// represents does not change.
func (UnitQuaternion) AlignHemisphere(ref, q []float64) {
	if floats.Dot(ref, q) < 0 {
		floats.Scale(-1, q)
	}
}

// Exp returns p⊗ExpAtIdentity(v).
func (UnitQuaternion) Exp(p, v []float64) []float64 {
	return fromQuat(quat.Mul(toQuat(p), quatExp(v)))
}

func (UnitQuaternion) ExpAtIdentity(v []float64) []float64 {
	return fromQuat(quatExp(v))
}

func (UnitQuaternion) DExpAtIdentity(v []float64) *mat.Dense {
	th := norm3(v)
	// q = (s·v, cos(θ/2)) with s = sin(θ/2)/θ; ds = (ds/dθ)/θ.
	var s, ds float64
	if th < smallAngle {
		s = 0.5 - th*th/48
		ds = -1.0/24 + th*th/960
	} else {
		sh, ch := math.Sincos(th / 2)
		s = sh / th
		ds = (0.5*ch*th - sh) / (th * th * th)
	}
	j := mat.NewDense(4, 3, nil)
	for r := range 3 {
		for c := range 3 {
			x := ds * v[r] * v[c]
			if r == c {
				x += s
			}
			j.Set(r, c, x)
		}
		j.Set(3, r, -0.5*s*v[r])
	}
	return j
}

func (q UnitQuaternion) DExp(p, v []float64) *mat.Dense {
	var j mat.Dense
	j.Mul(leftMatrix(toQuat(p)), q.DExpAtIdentity(v))
	return &j
}

// DLog returns the Jacobians of Log(from, to) for right updates of either
// argument: −J_l⁻¹(φ) for from and J_r⁻¹(φ) for to, where φ = Log(from, to).
func (q UnitQuaternion) DLog(from, to []float64) (dFrom, dTo *mat.Dense) {
	phi := q.Log(from, to)
	dFrom = InverseLeftJacobian(phi)
	dFrom.Scale(-1, dFrom)
	return dFrom, InverseRightJacobian(phi)
}

func (UnitQuaternion) UpdateInLocalCoordinates(p, delta []float64) {
	copy(p, fromQuat(quat.Mul(toQuat(p), quatExp(delta))))
}

func (UnitQuaternion) DUpdate(p []float64) *mat.Dense {
	var j mat.Dense
	j.Mul(leftMatrix(toQuat(p)), halfImag())
	return &j
}

// ComposeJet applies the Leibniz rule to the Hamilton product, which is
// bilinear in the embedding.
func (UnitQuaternion) ComposeJet(a, b Jet, withJacobians bool) Jet {
	n := a.Order()
	binom := binomials(n)
	out := Jet{Derivs: make([][]float64, n+1)}
	if withJacobians {
		out.Jacobians = make([]*mat.Dense, n+1)
	}
	for d := range n + 1 {
		var sum quat.Number
		var jac mat.Dense
		for m := range d + 1 {
			qa, qb := toQuat(a.Derivs[m]), toQuat(b.Derivs[d-m])
			c := binom[d][m]
			sum = quat.Add(sum, quat.Scale(c, quat.Mul(qa, qb)))
			if withJacobians {
				var t1, t2 mat.Dense
				t1.Mul(rightMatrix(qb), a.Jacobians[m])
				t2.Mul(leftMatrix(qa), b.Jacobians[d-m])
				t1.Add(&t1, &t2)
				t1.Scale(c, &t1)
				if jac.IsEmpty() {
					jac.CloneFrom(&t1)
				} else {
					jac.Add(&jac, &t1)
				}
			}
		}
		out.Derivs[d] = fromQuat(sum)
		if withJacobians {
			out.Jacobians[d] = &jac
		}
	}
	return out
}

// RayJet returns the jet of E(t) = ExpAtIdentity(β(t)·phi).
//
// With w = (phi/2, 0), E(t) = exp(β(t)·w) and w commutes with E, so
// E⁽ᵐ⁾ = E⊗Σₗ B(m, l)·wˡ with B the partial Bell polynomials of β's
// derivatives.
func (u UnitQuaternion) RayJet(phi, beta []float64, withJacobians bool) Jet {
	n := len(beta) - 1
	scaled := []float64{beta[0] * phi[0], beta[0] * phi[1], beta[0] * phi[2]}
	e := quatExp(scaled)
	w := quat.Number{Imag: phi[0] / 2, Jmag: phi[1] / 2, Kmag: phi[2] / 2}

	pow := make([]quat.Number, n+1)
	pow[0] = quat.Number{Real: 1}
	for l := 1; l <= n; l++ {
		pow[l] = quat.Mul(pow[l-1], w)
	}
	bell := PartialBell(beta, n)

	out := Jet{Derivs: make([][]float64, n+1)}
	for m := range n + 1 {
		var sum quat.Number
		for l := range m + 1 {
			if bell[m][l] == 0 {
				continue
			}
			sum = quat.Add(sum, quat.Scale(bell[m][l], quat.Mul(e, pow[l])))
		}
		out.Derivs[m] = fromQuat(sum)
	}
	if !withJacobians {
		return out
	}

	// d(E⊗wˡ)/dphi = R(wˡ)·dE + L(E)·dwˡ
	dE := u.DExpAtIdentity(scaled)
	dE.Scale(beta[0], dE)
	dw := halfImag()
	dPow := make([]*mat.Dense, n+1)
	dPow[0] = mat.NewDense(4, 3, nil)
	for l := 1; l <= n; l++ {
		acc := mat.NewDense(4, 3, nil)
		for a := range l {
			var t, t2 mat.Dense
			t.Mul(leftMatrix(pow[a]), rightMatrix(pow[l-1-a]))
			t2.Mul(&t, dw)
			acc.Add(acc, &t2)
		}
		dPow[l] = acc
	}
	le := leftMatrix(e)
	dTerm := make([]*mat.Dense, n+1)
	for l := range n + 1 {
		var t1, t2 mat.Dense
		t1.Mul(rightMatrix(pow[l]), dE)
		t2.Mul(le, dPow[l])
		t1.Add(&t1, &t2)
		dTerm[l] = &t1
	}
	out.Jacobians = make([]*mat.Dense, n+1)
	for m := range n + 1 {
		jac := mat.NewDense(4, 3, nil)
		for l := range m + 1 {
			if bell[m][l] == 0 {
				continue
			}
			var t mat.Dense
			t.Scale(bell[m][l], dTerm[l])
			jac.Add(jac, &t)
		}
		out.Jacobians[m] = jac
	}
	return out
}

func toQuat(p []float64) quat.Number {
	return quat.Number{Real: p[3], Imag: p[0], Jmag: p[1], Kmag: p[2]}
}

func fromQuat(q quat.Number) []float64 {
	return []float64{q.Imag, q.Jmag, q.Kmag, q.Real}
}

// quatExp returns the unit quaternion of the rotation vector v.
func quatExp(v []float64) quat.Number {
	th := norm3(v)
	var s float64
	if th < smallAngle {
		s = 0.5 - th*th/48
	} else {
		s = math.Sin(th/2) / th
	}
	return quat.Number{Real: math.Cos(th / 2), Imag: s * v[0], Jmag: s * v[1], Kmag: s * v[2]}
}

// quatLog returns the rotation vector of the unit quaternion q. The angle lies
// in [0, 2π), so quatExp(quatLog(q)) == q including its sign.
func quatLog(q quat.Number) []float64 {
	im := norm3([]float64{q.Imag, q.Jmag, q.Kmag})
	var s float64
	switch {
	case im == 0 && q.Real < 0:
		// −1 is a full turn about any axis.
		return []float64{2 * math.Pi, 0, 0}
	case im < smallAngle && q.Real > 0:
		// 2·atan2(im, w)/im ≈ (2/w)·(1 − im²/(3w²))
		s = 2 / q.Real * (1 - im*im/(3*q.Real*q.Real))
	default:
		s = 2 * math.Atan2(im, q.Real) / im
	}
	return []float64{s * q.Imag, s * q.Jmag, s * q.Kmag}
}

// QuaternionLeftMatrix returns L(q) with q⊗p = L(q)·p, for q stored as
// (x, y, z, w).
func QuaternionLeftMatrix(q []float64) *mat.Dense {
	return leftMatrix(toQuat(q))
}

// QuaternionRightMatrix returns R(q) with p⊗q = R(q)·p, for q stored as
// (x, y, z, w).
func QuaternionRightMatrix(q []float64) *mat.Dense {
	return rightMatrix(toQuat(q))
}

func leftMatrix(q quat.Number) *mat.Dense {
	x, y, z, w := q.Imag, q.Jmag, q.Kmag, q.Real
	return mat.NewDense(4, 4, []float64{
		w, -z, y, x,
		z, w, -x, y,
		-y, x, w, z,
		-x, -y, -z, w,
	})
}

func rightMatrix(q quat.Number) *mat.Dense {
	x, y, z, w := q.Imag, q.Jmag, q.Kmag, q.Real
	return mat.NewDense(4, 4, []float64{
		w, z, -y, x,
		-z, w, x, y,
		y, -x, w, z,
		-x, -y, -z, w,
	})
}

// halfImag maps a 3-vector v to the pure quaternion (v/2, 0).
func halfImag() *mat.Dense {
	return mat.NewDense(4, 3, []float64{
		0.5, 0, 0,
		0, 0.5, 0,
		0, 0, 0.5,
		0, 0, 0,
	})
}
