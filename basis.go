package bspline

import "gonum.org/v1/gonum/mat"

// basisMatrix returns the order k basis matrix of the segment starting at
// knot i. Row r holds the coefficients of uʳ, column c those of the basis
// function of control vertex i-k+1+c, where u ∈ [0, 1) is the relative
// position in the segment.
//
// The matrix is built with the two-term recursion
//
//	M₁ = [1]
//	Mₖ = [Mₖ₋₁; 0]·A + [0; Mₖ₋₁]·B
//
// where A and B are (k-1)×k bidiagonal matrices of knot interval ratios. It
// reads knots i-k+2 through i+k-1.
func basisMatrix[T Time](p TimePolicy[T], knot func(int) T, k, i int) *mat.Dense {
	if k == 1 {
		return mat.NewDense(1, 1, []float64{1})
	}
	prev := basisMatrix(p, knot, k-1, i)

	top := mat.NewDense(k, k-1, nil)
	top.Slice(0, k-1, 0, k-1).(*mat.Dense).Copy(prev)
	bottom := mat.NewDense(k, k-1, nil)
	bottom.Slice(1, k, 0, k-1).(*mat.Dense).Copy(prev)

	a := mat.NewDense(k-1, k, nil)
	b := mat.NewDense(k-1, k, nil)
	for idx := range k - 1 {
		j := i - k + 2 + idx
		d0 := basisD0(p, knot, k, i, j)
		d1 := basisD1(p, knot, k, i, j)
		a.Set(idx, idx, 1-d0)
		a.Set(idx, idx+1, d0)
		b.Set(idx, idx, -d1)
		b.Set(idx, idx+1, d1)
	}

	var m, mb mat.Dense
	m.Mul(top, a)
	mb.Mul(bottom, b)
	m.Add(&m, &mb)
	return &m
}

// basisD0 returns (t_i - t_j) / (t_{j+k-1} - t_j), or 0 for an empty interval.
func basisD0[T Time](p TimePolicy[T], knot func(int) T, k, i, j int) float64 {
	den := p.Sub(knot(j+k-1), knot(j))
	if den <= 0 {
		return 0
	}
	return p.Ratio(p.Sub(knot(i), knot(j)), den)
}

// basisD1 returns (t_{i+1} - t_i) / (t_{j+k-1} - t_j), or 0 for an empty
// interval.
func basisD1[T Time](p TimePolicy[T], knot func(int) T, k, i, j int) float64 {
	den := p.Sub(knot(j+k-1), knot(j))
	if den <= 0 {
		return 0
	}
	return p.Ratio(p.Sub(knot(i+1), knot(i)), den)
}

// dmul returns the falling factorial r·(r-1)·…·(r-d+1), the factor uʳ gains
// when differentiated d times.
func dmul(r, d int) float64 {
	out := 1.0
	for n := r - d + 1; n <= r; n++ {
		out *= float64(n)
	}
	return out
}

// powerVector returns the d-th derivative of (1, u, u², …, uᵏ⁻¹) with respect
// to u.
func powerVector(k, d int, u float64) []float64 {
	out := make([]float64, k)
	for r := d; r < k; r++ {
		x := dmul(r, d)
		for range r - d {
			x *= u
		}
		out[r] = x
	}
	return out
}

// basisWeights returns the d-th time derivative of the basis function values
// for the relative position u in a segment of length l time units.
func basisWeights(m *mat.Dense, d int, u, l float64) []float64 {
	k, _ := m.Dims()
	out := make([]float64, k)
	if d >= k {
		return out
	}
	pv := mat.NewVecDense(k, powerVector(k, d, u))
	var w mat.VecDense
	w.MulVec(m.T(), pv)
	scale := 1.0
	for range d {
		scale /= l
	}
	for c := range k {
		out[c] = w.AtVec(c) * scale
	}
	return out
}

// cumulative turns basis weights into cumulative weights βⱼ = Σ_{l≥j} bₗ.
func cumulative(b []float64) []float64 {
	out := make([]float64, len(b))
	var sum float64
	for j := len(b) - 1; j >= 0; j-- {
		sum += b[j]
		out[j] = sum
	}
	return out
}
