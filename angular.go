package bspline

import (
	"gonum.org/v1/gonum/mat"

	"honnef.co/go/bspline/manifold"
)

// AngularVelocity returns the body frame angular velocity ω = 2·Im(q*⊗q̇) of
// a rotation spline. The evaluator must be prepared for derivatives of at
// least order 1.
func AngularVelocity[T Time](e *Evaluator[T, manifold.UnitQuaternion]) ([]float64, error) {
	return angular(e, 1)
}

// AngularAcceleration returns the body frame angular acceleration
// α = 2·Im(q*⊗q̈) of a rotation spline. The evaluator must be prepared for
// derivatives of at least order 2.
func AngularAcceleration[T Time](e *Evaluator[T, manifold.UnitQuaternion]) ([]float64, error) {
	return angular(e, 2)
}

// AngularVelocityJacobian returns the Jacobian of [AngularVelocity] with
// respect to local updates of the window's control vertices.
func AngularVelocityJacobian[T Time](e *Evaluator[T, manifold.UnitQuaternion]) (*mat.Dense, error) {
	return angularJacobian(e, 1)
}

// AngularAccelerationJacobian returns the Jacobian of [AngularAcceleration]
// with respect to local updates of the window's control vertices.
func AngularAccelerationJacobian[T Time](e *Evaluator[T, manifold.UnitQuaternion]) (*mat.Dense, error) {
	return angularJacobian(e, 2)
}

// conj returns the conjugate of a quaternion stored as (x, y, z, w).
func conj(q []float64) []float64 {
	return []float64{-q[0], -q[1], -q[2], q[3]}
}

func angular[T Time](e *Evaluator[T, manifold.UnitQuaternion], n int) ([]float64, error) {
	if err := e.checkOrder(n); err != nil {
		return nil, err
	}
	j := e.jet(false)
	var prod mat.VecDense
	prod.MulVec(manifold.QuaternionLeftMatrix(conj(j.Derivs[0])), mat.NewVecDense(4, j.Derivs[n]))
	return []float64{2 * prod.AtVec(0), 2 * prod.AtVec(1), 2 * prod.AtVec(2)}, nil
}

// angularJacobian differentiates 2·Im(q*⊗q⁽ⁿ⁾):
// d(q*⊗x) = R(x)·C·dq + L(q*)·dx, with C the conjugation matrix.
func angularJacobian[T Time](e *Evaluator[T, manifold.UnitQuaternion], n int) (*mat.Dense, error) {
	if err := e.checkOrder(n); err != nil {
		return nil, err
	}
	j := e.jet(true)
	c := mat.NewDiagDense(4, []float64{-1, -1, -1, 1})

	var rc, t1, t2 mat.Dense
	rc.Mul(manifold.QuaternionRightMatrix(j.Derivs[n]), c)
	t1.Mul(&rc, j.Jacobians[0])
	t2.Mul(manifold.QuaternionLeftMatrix(conj(j.Derivs[0])), j.Jacobians[n])
	t1.Add(&t1, &t2)

	_, cols := t1.Dims()
	var out mat.Dense
	out.Scale(2, t1.Slice(0, 3, 0, cols))
	return &out, nil
}
