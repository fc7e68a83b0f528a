package bspline

import (
	"slices"

	"gonum.org/v1/gonum/mat"
)

// Segment is the time interval starting at a knot and ending at the next.
// It owns the control vertex associated with its knot and caches the basis
// matrix of the interval.
type Segment[T Time] struct {
	knot  T
	point []float64
	// nil while invalid
	basis *mat.Dense
	dv    *ControlVertexVariable[T]
}

// Knot returns the knot the segment starts at.
func (s *Segment[T]) Knot() T { return s.knot }

// ControlVertex returns a copy of the segment's control vertex.
func (s *Segment[T]) ControlVertex() []float64 {
	return slices.Clone(s.point)
}

// BasisMatrix returns the cached basis matrix, or nil if it has not been
// computed since the surrounding knots last changed. The matrix must not be
// modified.
func (s *Segment[T]) BasisMatrix() *mat.Dense { return s.basis }

// segmentStore keeps segments ordered by knot.
type segmentStore[T Time] struct {
	segs []*Segment[T]
}

func (st *segmentStore[T]) len() int { return len(st.segs) }

func (st *segmentStore[T]) at(i int) *Segment[T] { return st.segs[i] }

func (st *segmentStore[T]) last() *Segment[T] { return st.segs[len(st.segs)-1] }

// search returns the index of the knot t, or the index it would be inserted
// at, and whether it is present.
func (st *segmentStore[T]) search(t T) (int, bool) {
	return slices.BinarySearchFunc(st.segs, t, func(s *Segment[T], t T) int {
		switch {
		case s.knot < t:
			return -1
		case s.knot > t:
			return 1
		default:
			return 0
		}
	})
}

// floor returns the index of the greatest knot ≤ t, or -1 if there is none.
func (st *segmentStore[T]) floor(t T) int {
	i, found := st.search(t)
	if found {
		return i
	}
	return i - 1
}

func (st *segmentStore[T]) insert(i int, s *Segment[T]) {
	st.segs = slices.Insert(st.segs, i, s)
}

func (st *segmentStore[T]) removeLast() *Segment[T] {
	s := st.last()
	st.segs[len(st.segs)-1] = nil
	st.segs = st.segs[:len(st.segs)-1]
	return s
}

func (st *segmentStore[T]) reset() {
	clear(st.segs)
	st.segs = st.segs[:0]
}
