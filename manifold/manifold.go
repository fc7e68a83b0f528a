// Package manifold provides the spaces that spline control vertices live on.
//
// A [Manifold] is a differentiable manifold with a group-like composition,
// exponential and logarithm maps, and the differentials of those maps. Points
// and tangent vectors are plain float64 slices: points have [Group.PointSize]
// entries (their embedding), tangent vectors have [Group.Dimension] entries.
//
// Besides the group operations, every manifold implements [JetAlgebra], which
// propagates time derivatives (and their Jacobians with respect to a parameter
// vector) through composition and through one-parameter subgroups. This is
// what lets a spline compute exact derivatives of products of exponentials.
//
// The package includes [Euclidean], [UnitQuaternion] and [Product].
package manifold

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// Group describes the algebraic structure of a manifold.
type Group interface {
	// Dimension returns the dimension of the tangent space.
	Dimension() int
	// PointSize returns the number of coordinates of a point.
	PointSize() int

	Identity() []float64
	// RandomPoint returns a random point. It exists to support testing.
	RandomPoint(rng *rand.Rand) []float64

	// Compose returns the group product a∘b.
	Compose(a, b []float64) []float64
	// Log returns the tangent vector v such that Exp(from, v) == to.
	Log(from, to []float64) []float64
	// Exp moves p along the tangent vector v.
	Exp(p, v []float64) []float64
	// ExpAtIdentity is Exp(Identity(), v).
	ExpAtIdentity(v []float64) []float64
}

// Differential describes the first order behaviour of the group operations.
// All Jacobians are with respect to the embedding of points.
type Differential interface {
	// DExpAtIdentity returns the PointSize×Dimension Jacobian of
	// ExpAtIdentity at v.
	DExpAtIdentity(v []float64) *mat.Dense
	// DExp returns the PointSize×Dimension Jacobian of Exp(p, v) with
	// respect to v.
	DExp(p, v []float64) *mat.Dense
	// DLog returns the Dimension×Dimension Jacobians of Log(from, to) with
	// respect to local coordinate updates of from and of to.
	DLog(from, to []float64) (dFrom, dTo *mat.Dense)

	// UpdateInLocalCoordinates applies the tangent perturbation delta to p in
	// place.
	UpdateInLocalCoordinates(p, delta []float64)
	// DUpdate returns the PointSize×Dimension Jacobian of
	// UpdateInLocalCoordinates(p, delta) with respect to delta at zero.
	DUpdate(p []float64) *mat.Dense
}

// JetAlgebra propagates time derivatives through the group operations.
type JetAlgebra interface {
	// ComposeJet returns the jet of the curve a(t)∘b(t). Both jets must carry
	// the same number of derivatives. Jacobians are propagated when
	// withJacobians is set, in which case both inputs must carry them.
	ComposeJet(a, b Jet, withJacobians bool) Jet
	// RayJet returns the jet of ExpAtIdentity(β(t)·phi), where beta holds β
	// and its time derivatives. When withJacobians is set, the result's
	// Jacobians are taken with respect to phi.
	RayJet(phi, beta []float64, withJacobians bool) Jet
}

// Manifold is everything a spline needs from the space its control vertices
// live on.
type Manifold interface {
	Group
	Differential
	JetAlgebra
}
