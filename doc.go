// Package bspline provides B-splines whose control vertices lie on
// differentiable manifolds. It was designed to represent continuous-time
// trajectories, such as the position, orientation, or pose of a sensor, in
// state estimation and calibration problems.
//
// # Cumulative B-splines
//
// A classical B-spline of order k is a weighted sum of k consecutive control
// vertices. Weighted sums are meaningless on manifolds like the rotation
// group, so this package uses the cumulative formulation instead. With the
// cumulative basis functions βⱼ = Σ_{l≥j} bₗ, the value of a spline is
//
//	V(t) = p₀ ∘ Exp(β₁(t)·Log(p₀, p₁)) ∘ … ∘ Exp(βₖ₋₁(t)·Log(pₖ₋₂, pₖ₋₁))
//
// which is always a valid point of the manifold, and which reduces to the
// classical weighted sum in Euclidean space.
//
// Manifolds are described by the [manifold.Manifold] interface. The
// [manifold] package provides Euclidean space, unit quaternions, and
// products of manifolds such as rigid body poses.
//
// # Knots and evaluable range
//
// A spline of order k with N knots can only be evaluated between
// knot[k-1] and knot[N-k]. The outer knots pad the window of k control
// vertices that influence each segment. [Spline.InitConstantUniformSpline]
// creates uniformly spaced knots including this padding; knots can also be
// added one by one with [Spline.AddControlVertex] followed by [Spline.Init],
// or appended and removed at the end with [Spline.AddSegment] and
// [Spline.RemoveSegment].
//
// # Time
//
// Splines are generic over the type used for time, which can be a float64
// or an int64. A [TimePolicy] defines the arithmetic of the time domain.
// [Seconds] uses float64 seconds, [Ticks] uses integer ticks such as
// [Nanoseconds].
//
// # Evaluation
//
// [Spline.EvaluatorAt] returns an [Evaluator] for one point in time. It
// computes the spline's value, its time derivatives, and the Jacobians of
// both with respect to the control vertices that influence it. Derivatives
// and Jacobians are exact. For rotation splines, [AngularVelocity] and
// [AngularAcceleration] convert quaternion derivatives to body frame
// angular rates.
//
// # Optimization
//
// Each control vertex can be exposed as a [DesignVariable], which a
// nonlinear least-squares solver updates in the tangent space of the vertex.
// [Spline.DesignVariables] returns the variables whose vertices influence a
// point in time, matching the columns of [Evaluator.Jacobian].
package bspline
