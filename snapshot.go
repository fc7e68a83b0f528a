package bspline

import (
	"fmt"
	"io"
	"slices"

	"gopkg.in/yaml.v3"
)

// Snapshot is a serializable copy of a spline's knots and control vertices.
type Snapshot[T Time] struct {
	Order           int         `yaml:"order"`
	Knots           []T         `yaml:"knots,flow"`
	ControlVertices [][]float64 `yaml:"control_vertices"`
}

// Snapshot returns a copy of the spline's knots and control vertices.
func (s *Spline[T, M]) Snapshot() Snapshot[T] {
	snap := Snapshot[T]{
		Order:           s.order,
		Knots:           s.Knots(),
		ControlVertices: make([][]float64, s.segments.len()),
	}
	for i, seg := range s.Segments() {
		snap.ControlVertices[i] = slices.Clone(seg.point)
	}
	return snap
}

// Restore replaces the spline's contents with those of a snapshot taken from
// a spline of the same order and manifold. If the snapshot has enough knots,
// the spline is initialized.
//
// Design variables of the previous contents become detached.
func (s *Spline[T, M]) Restore(snap Snapshot[T]) error {
	if snap.Order != s.order {
		return fmt.Errorf("%w: snapshot has order %d, spline has order %d", ErrDimensionMismatch, snap.Order, s.order)
	}
	if len(snap.Knots) != len(snap.ControlVertices) {
		return fmt.Errorf("%w: snapshot has %d knots and %d control vertices", ErrDimensionMismatch, len(snap.Knots), len(snap.ControlVertices))
	}
	for i, p := range snap.ControlVertices {
		if err := s.checkPoint(p); err != nil {
			return fmt.Errorf("control vertex %d: %w", i, err)
		}
		if i > 0 && !(snap.Knots[i] > snap.Knots[i-1]) {
			return fmt.Errorf("%w: knots %v and %v are not increasing", ErrOrderViolation, snap.Knots[i-1], snap.Knots[i])
		}
	}

	s.detachAll()
	s.segments.reset()
	s.uniform.clear()
	for i, t := range snap.Knots {
		s.segments.insert(i, &Segment[T]{knot: t, point: slices.Clone(snap.ControlVertices[i])})
	}
	s.version++
	s.logger.Debug("restored spline", "knots", len(snap.Knots))
	if s.checkUsable() != nil {
		return nil
	}
	return s.Init()
}

// WriteYAML writes a snapshot of the spline to w.
func (s *Spline[T, M]) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	if err := enc.Encode(s.Snapshot()); err != nil {
		return fmt.Errorf("encoding spline: %w", err)
	}
	return enc.Close()
}

// ReadYAML replaces the spline's contents with a snapshot read from r.
func (s *Spline[T, M]) ReadYAML(r io.Reader) error {
	var snap Snapshot[T]
	if err := yaml.NewDecoder(r).Decode(&snap); err != nil {
		return fmt.Errorf("decoding spline: %w", err)
	}
	return s.Restore(snap)
}
