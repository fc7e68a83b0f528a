package bspline

import "errors"

var (
	// ErrOrderViolation is returned when knots would not be strictly
	// increasing, or when a spline has too few knots to be evaluated.
	ErrOrderViolation = errors.New("knot order violation")
	// ErrOutOfRange is returned for times outside a spline's evaluable range.
	ErrOutOfRange = errors.New("time out of range")
	// ErrDimensionMismatch is returned when a vector has the wrong length.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrDerivativeOrderExceeded is returned when an evaluator is asked for a
	// derivative above the maximum order it was prepared for.
	ErrDerivativeOrderExceeded = errors.New("derivative order exceeded")
	// ErrNothingToRevert is returned by RevertUpdate if no update was made.
	ErrNothingToRevert = errors.New("no update to revert")
	// ErrDetached is returned by design variables whose segment has been
	// removed from the spline.
	ErrDetached = errors.New("design variable detached from spline")
)
