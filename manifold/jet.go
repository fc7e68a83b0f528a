package manifold

import "gonum.org/v1/gonum/mat"

// Jet is a point of a curve together with its time derivatives.
//
// Derivs[m] is the m-th time derivative, Derivs[0] the point itself. If
// Jacobians is not nil, Jacobians[m] is the derivative of Derivs[m] with
// respect to some parameter vector. All jets taking part in one computation
// share that parameter vector.
type Jet struct {
	Derivs    [][]float64
	Jacobians []*mat.Dense
}

// Order returns the highest derivative order held by the jet.
func (j Jet) Order() int {
	return len(j.Derivs) - 1
}

// ConstantJet returns the jet of a curve that stays at p, holding
// derivatives up to order. If jac is not nil it is used as the Jacobian of p;
// the Jacobians of all higher derivatives are zero.
func ConstantJet(p []float64, order int, jac *mat.Dense) Jet {
	j := Jet{Derivs: make([][]float64, order+1)}
	j.Derivs[0] = append([]float64(nil), p...)
	for m := 1; m <= order; m++ {
		j.Derivs[m] = make([]float64, len(p))
	}
	if jac != nil {
		r, c := jac.Dims()
		j.Jacobians = make([]*mat.Dense, order+1)
		j.Jacobians[0] = mat.DenseCopyOf(jac)
		for m := 1; m <= order; m++ {
			j.Jacobians[m] = mat.NewDense(r, c, nil)
		}
	}
	return j
}

// binomials returns the rows 0…n of Pascal's triangle.
func binomials(n int) [][]float64 {
	rows := make([][]float64, n+1)
	for i := range n + 1 {
		rows[i] = make([]float64, i+1)
		rows[i][0], rows[i][i] = 1, 1
		for k := 1; k < i; k++ {
			rows[i][k] = rows[i-1][k-1] + rows[i-1][k]
		}
	}
	return rows
}

// PartialBell returns the partial Bell polynomials B(m, l) evaluated at
// x[1], x[2], …, for 0 ≤ l ≤ m ≤ n. x[0] is ignored.
//
// They give the derivatives of a composition: if g(t) = f(β(t)) and x holds
// the derivatives of β, then g⁽ᵐ⁾ = Σₗ f⁽ˡ⁾(β)·B(m, l).
func PartialBell(x []float64, n int) [][]float64 {
	c := binomials(n)
	b := make([][]float64, n+1)
	for m := range n + 1 {
		b[m] = make([]float64, m+1)
	}
	b[0][0] = 1
	for m := 1; m <= n; m++ {
		for l := 1; l <= m; l++ {
			var sum float64
			for i := 1; i <= m-l+1; i++ {
				if i >= len(x) {
					break
				}
				sum += c[m-1][i-1] * x[i] * b[m-i][l-1]
			}
			b[m][l] = sum
		}
	}
	return b
}

func identity(n int) *mat.Dense {
	d := mat.NewDense(n, n, nil)
	for i := range n {
		d.Set(i, i, 1)
	}
	return d
}
