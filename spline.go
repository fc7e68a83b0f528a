package bspline

import (
	"fmt"
	"iter"
	"log/slog"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"

	"honnef.co/go/bspline/manifold"
)

// Option configures a [Spline].
type Option func(*config)

type config struct {
	logger *slog.Logger
}

// WithLogger makes the spline emit debug records about structural changes,
// such as initialization, appended and removed segments, and basis matrix
// invalidation.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// Spline is a B-spline of a fixed order whose control vertices are points on
// the manifold M, over the time type T.
//
// A spline of order k with N knots can be evaluated in the time range
// [knot[k-1], knot[N-k]]; the k-1 outermost knots on either end only pad the
// basis window. This requires N ≥ 2k.
//
// Splines are not safe for concurrent use.
type Spline[T Time, M manifold.Manifold] struct {
	manifold M
	policy   TimePolicy[T]
	order    int
	segments segmentStore[T]
	// set while the knots are those produced by InitConstantUniformSpline
	uniform option[uniformGrid[T]]
	// incremented on every write to control vertices or knots
	version uint64
	logger  *slog.Logger
}

type uniformGrid[T Time] struct {
	from, till T
	segments   int
}

// New returns an empty spline of the given order on the manifold m. It panics
// if order < 1.
func New[T Time, M manifold.Manifold](m M, policy TimePolicy[T], order int, opts ...Option) *Spline[T, M] {
	if order < 1 {
		panic(fmt.Sprintf("invalid spline order %d", order))
	}
	cfg := config{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Spline[T, M]{
		manifold: m,
		policy:   policy,
		order:    order,
		logger:   cfg.logger.With("order", order),
	}
}

func (s *Spline[T, M]) Order() int                { return s.order }
func (s *Spline[T, M]) Manifold() M               { return s.manifold }
func (s *Spline[T, M]) TimePolicy() TimePolicy[T] { return s.policy }

// MinimumKnotsRequired returns the number of knots needed for the evaluable
// time range to be a non-empty interval.
func (s *Spline[T, M]) MinimumKnotsRequired() int { return 2 * s.order }

func (s *Spline[T, M]) NumKnots() int           { return s.segments.len() }
func (s *Spline[T, M]) NumControlVertices() int { return s.segments.len() }

// NumValidTimeSegments returns the number of segments that lie in the
// evaluable time range.
func (s *Spline[T, M]) NumValidTimeSegments() int {
	return max(0, s.segments.len()-2*s.order+1)
}

// Knots returns a copy of all knots, including the padding knots.
func (s *Spline[T, M]) Knots() []T {
	out := make([]T, s.segments.len())
	for i := range out {
		out[i] = s.knot(i)
	}
	return out
}

func (s *Spline[T, M]) knot(i int) T { return s.segments.at(i).knot }

// segmentLength returns the duration of segment i. The last segment has no
// end; it is only evaluated at its start by order 1 splines, and is given the
// length of its predecessor.
func (s *Spline[T, M]) segmentLength(i int) T {
	if i+1 == s.segments.len() {
		i--
	}
	return s.policy.Sub(s.knot(i+1), s.knot(i))
}

// MinTime returns the start of the evaluable time range. It panics if the
// spline has fewer than [Spline.MinimumKnotsRequired] knots.
func (s *Spline[T, M]) MinTime() T {
	s.mustBeUsable()
	return s.knot(s.order - 1)
}

// MaxTime returns the end of the evaluable time range. It panics if the
// spline has fewer than [Spline.MinimumKnotsRequired] knots.
func (s *Spline[T, M]) MaxTime() T {
	s.mustBeUsable()
	return s.knot(s.segments.len() - s.order)
}

// TimeInterval returns MinTime and MaxTime.
func (s *Spline[T, M]) TimeInterval() (T, T) {
	return s.MinTime(), s.MaxTime()
}

func (s *Spline[T, M]) mustBeUsable() {
	if err := s.checkUsable(); err != nil {
		panic(err)
	}
}

func (s *Spline[T, M]) checkUsable() error {
	if n := s.segments.len(); n < s.MinimumKnotsRequired() {
		return fmt.Errorf("%w: spline has %d knots, needs at least %d", ErrOrderViolation, n, s.MinimumKnotsRequired())
	}
	return nil
}

// Segment returns the i-th segment, counting padding segments.
func (s *Spline[T, M]) Segment(i int) *Segment[T] { return s.segments.at(i) }

// Segments returns an iterator over all segments and their indices.
func (s *Spline[T, M]) Segments() iter.Seq2[int, *Segment[T]] {
	return func(yield func(int, *Segment[T]) bool) {
		for i, seg := range s.segments.segs {
			if !yield(i, seg) {
				return
			}
		}
	}
}

func (s *Spline[T, M]) checkPoint(p []float64) error {
	if len(p) != s.manifold.PointSize() {
		return fmt.Errorf("%w: point has %d coordinates, manifold needs %d", ErrDimensionMismatch, len(p), s.manifold.PointSize())
	}
	return nil
}

// AddKnot inserts a knot whose control vertex is the manifold's identity. It
// returns an error wrapping [ErrOrderViolation] if the knot already exists.
//
// Basis matrices affected by the new knot are invalidated and recomputed on
// demand. Existing evaluators become stale.
func (s *Spline[T, M]) AddKnot(t T) error {
	_, err := s.insert(t, s.manifold.Identity())
	return err
}

// AddControlVertex sets the control vertex of the knot t, inserting the knot
// if it doesn't exist yet.
func (s *Spline[T, M]) AddControlVertex(t T, p []float64) error {
	if err := s.checkPoint(p); err != nil {
		return err
	}
	if i, found := s.segments.search(t); found {
		copy(s.segments.at(i).point, p)
		s.version++
		return nil
	}
	_, err := s.insert(t, slices.Clone(p))
	return err
}

func (s *Spline[T, M]) insert(t T, p []float64) (int, error) {
	if math.IsNaN(float64(t)) {
		return 0, fmt.Errorf("%w: knot is NaN", ErrOrderViolation)
	}
	i, found := s.segments.search(t)
	if found {
		return 0, fmt.Errorf("%w: knot %v already exists", ErrOrderViolation, t)
	}
	s.segments.insert(i, &Segment[T]{knot: t, point: p})
	s.knotsChanged(i)
	return i, nil
}

// SetControlVertex replaces the control vertex of the i-th segment.
func (s *Spline[T, M]) SetControlVertex(i int, p []float64) error {
	if err := s.checkPoint(p); err != nil {
		return err
	}
	copy(s.segments.at(i).point, p)
	s.version++
	return nil
}

// ControlVertex returns a copy of the control vertex of the i-th segment.
func (s *Spline[T, M]) ControlVertex(i int) []float64 {
	return s.segments.at(i).ControlVertex()
}

// knotsChanged records that the knot at index p was inserted or removed.
func (s *Spline[T, M]) knotsChanged(p int) {
	s.version++
	if s.uniform.isSet {
		s.logger.Debug("knots no longer uniform")
		s.uniform.clear()
	}
	s.invalidate(p)
}

// invalidate drops the basis matrices that depend on the knot at index p.
// The matrix of segment i reads knots i-k+2 … i+k-1, so an insertion or
// removal at p affects segments p-k+1 … p+k-2.
func (s *Spline[T, M]) invalidate(p int) {
	k := s.order
	from := max(0, p-k+1)
	to := min(s.segments.len()-1, max(p, p+k-2))
	for i := from; i <= to; i++ {
		s.segments.at(i).basis = nil
	}
	if from <= to {
		s.logger.Debug("invalidated basis matrices", "from", from, "to", to)
	}
}

// basis returns the basis matrix of segment i, computing it if necessary.
func (s *Spline[T, M]) basis(i int) *mat.Dense {
	seg := s.segments.at(i)
	if seg.basis == nil {
		seg.basis = basisMatrix(s.policy, s.knot, s.order, i)
	}
	return seg.basis
}

// Init computes the basis matrices of all segments in the evaluable range.
// It returns an error wrapping [ErrOrderViolation] if the spline has fewer
// than [Spline.MinimumKnotsRequired] knots.
func (s *Spline[T, M]) Init() error {
	if err := s.checkUsable(); err != nil {
		return err
	}
	n := s.segments.len()
	for i := s.order - 1; i <= n-s.order; i++ {
		s.segments.at(i).basis = basisMatrix(s.policy, s.knot, s.order, i)
	}
	s.logger.Debug("initialized spline", "knots", n, "segments", s.NumValidTimeSegments())
	return nil
}

// InitConstantUniformSpline replaces the spline's contents with
// numSegments equally long segments covering [tMin, tMax], padded by order-1
// knots with the same spacing on either side. All control vertices are set
// to constant.
//
// Until knots are next inserted or removed, segment lookup takes constant
// time.
func (s *Spline[T, M]) InitConstantUniformSpline(tMin, tMax T, numSegments int, constant []float64) error {
	if err := s.checkPoint(constant); err != nil {
		return err
	}
	if numSegments < 1 {
		return fmt.Errorf("%w: need at least one segment, got %d", ErrOrderViolation, numSegments)
	}
	if !(tMin < tMax) {
		return fmt.Errorf("%w: empty time range [%v, %v]", ErrOrderViolation, tMin, tMax)
	}

	k := s.order
	n := numSegments + 2*k - 1
	knots := make([]T, n)
	for i := range n {
		knots[i] = s.policy.Interpolate(tMin, tMax, numSegments, i-(k-1))
		if i > 0 && knots[i] <= knots[i-1] {
			return fmt.Errorf("%w: knots %v and %v are not increasing", ErrOrderViolation, knots[i-1], knots[i])
		}
	}

	s.detachAll()
	s.segments.reset()
	for _, t := range knots {
		s.segments.insert(s.segments.len(), &Segment[T]{knot: t, point: slices.Clone(constant)})
	}
	s.version++
	if err := s.Init(); err != nil {
		return err
	}
	s.uniform.set(uniformGrid[T]{from: tMin, till: tMax, segments: numSegments})
	s.logger.Debug("initialized uniform spline", "min", tMin, "max", tMax, "segments", numSegments)
	return nil
}

// AddSegment appends a knot after the last one, with control vertex p, and
// extends the evaluable range by one segment.
func (s *Spline[T, M]) AddSegment(t T, p []float64) error {
	if err := s.checkPoint(p); err != nil {
		return err
	}
	if n := s.segments.len(); n > 0 && !(t > s.segments.last().knot) {
		return fmt.Errorf("%w: appended knot %v is not after %v", ErrOrderViolation, t, s.segments.last().knot)
	}
	i, err := s.insert(t, slices.Clone(p))
	if err != nil {
		return err
	}
	if s.checkUsable() == nil {
		s.basis(s.segments.len() - s.order)
	}
	s.logger.Debug("appended segment", "knot", t, "index", i)
	return nil
}

// RemoveSegment removes the last knot and its control vertex, shrinking the
// evaluable range by one segment. Design variables of the removed segment
// become detached.
func (s *Spline[T, M]) RemoveSegment() error {
	if s.segments.len() == 0 {
		return fmt.Errorf("%w: spline has no segments", ErrOrderViolation)
	}
	seg := s.segments.removeLast()
	seg.detach()
	s.knotsChanged(s.segments.len())
	s.logger.Debug("removed segment", "knot", seg.knot)
	return nil
}

func (s *Spline[T, M]) detachAll() {
	for _, seg := range s.segments.segs {
		seg.detach()
	}
}

// SegmentIndex returns the index of the segment containing t, that is the
// index of the greatest knot ≤ t. It returns an error wrapping
// [ErrOutOfRange] if t precedes all knots or is NaN.
func (s *Spline[T, M]) SegmentIndex(t T) (int, error) {
	if math.IsNaN(float64(t)) {
		return 0, fmt.Errorf("%w: time is NaN", ErrOutOfRange)
	}
	i := s.segmentIndex(t)
	if i < 0 {
		return 0, fmt.Errorf("%w: %v precedes all knots", ErrOutOfRange, t)
	}
	return i, nil
}

func (s *Spline[T, M]) segmentIndex(t T) int {
	if !s.uniform.isSet {
		return s.segments.floor(t)
	}
	g := s.uniform.unwrap()
	n := s.segments.len()
	i := s.policy.SegmentIndex(g.from, g.till, g.segments, t) + s.order - 1
	i = max(0, min(i, n-1))
	// correct for rounding in the time policy
	for i > 0 && s.knot(i) > t {
		i--
	}
	for i+1 < n && s.knot(i+1) <= t {
		i++
	}
	if s.knot(i) > t {
		return -1
	}
	return i
}

// evaluableSegment returns the segment in which t is evaluated. t must lie
// in the evaluable time range.
func (s *Spline[T, M]) evaluableSegment(t T) (int, error) {
	if err := s.checkUsable(); err != nil {
		return 0, err
	}
	lo, hi := s.MinTime(), s.MaxTime()
	if !(t >= lo && t <= hi) {
		return 0, fmt.Errorf("%w: %v is not in [%v, %v]", ErrOutOfRange, t, lo, hi)
	}
	return s.segmentIndex(t), nil
}

// LocalCoefficients returns the control vertices that influence the spline
// at time t, stacked into one vector.
func (s *Spline[T, M]) LocalCoefficients(t T) ([]float64, error) {
	i, err := s.evaluableSegment(t)
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, s.order*s.manifold.PointSize())
	for j := i - s.order + 1; j <= i; j++ {
		out = append(out, s.segments.at(j).point...)
	}
	return out, nil
}

// SetLocalCoefficients replaces the control vertices that influence the
// spline at time t, given stacked as returned by [Spline.LocalCoefficients].
func (s *Spline[T, M]) SetLocalCoefficients(t T, c []float64) error {
	i, err := s.evaluableSegment(t)
	if err != nil {
		return err
	}
	ps := s.manifold.PointSize()
	if len(c) != s.order*ps {
		return fmt.Errorf("%w: got %d coefficients, need %d", ErrDimensionMismatch, len(c), s.order*ps)
	}
	for n, j := 0, i-s.order+1; j <= i; n, j = n+1, j+1 {
		copy(s.segments.at(j).point, c[n*ps:(n+1)*ps])
	}
	s.version++
	return nil
}

// EvaluatorAt returns an evaluator for time t that can compute derivatives
// up to maxDerivative. It returns an error wrapping [ErrOutOfRange] if t is
// outside the evaluable time range. It panics if maxDerivative is negative.
//
// maxDerivative may exceed the spline order. The basis weights of such
// orders are zero, which makes the derivatives of Euclidean splines zero, but
// on curved manifolds like the unit quaternions the composition of
// exponentials keeps them nonzero.
//
// Evaluators follow changes to control vertices. After knots are added or
// removed, evaluators must be recreated.
func (s *Spline[T, M]) EvaluatorAt(t T, maxDerivative int) (*Evaluator[T, M], error) {
	if maxDerivative < 0 {
		panic(fmt.Sprintf("invalid derivative order %d", maxDerivative))
	}
	i, err := s.evaluableSegment(t)
	if err != nil {
		return nil, err
	}
	pos := s.policy.Sub(t, s.knot(i))
	length := s.segmentLength(i)
	e := s.newEvaluator(i, s.policy.Ratio(pos, length), maxDerivative)
	e.t = t
	e.pos = pos
	return e, nil
}
