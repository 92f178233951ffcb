package automl

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// ridgeLambda regularizes the fallback solve for rank-deficient designs
const ridgeLambda = 1e-6

// LinearParams is an ordinary least squares fit
type LinearParams struct {
	Intercept float64   `json:"intercept" yaml:"intercept"`
	Weights   []float64 `json:"weights" yaml:"weights"`
}

type linearModel struct {
	p LinearParams
}

// fit solves the least squares problem with a QR factorization, falling back
// to a tiny ridge penalty when the design is rank deficient or short
func (m *linearModel) fit(X [][]float64, y []float64) error {
	n, p := len(X), len(X[0])
	a := mat.NewDense(n, p+1, nil)
	for i, row := range X {
		a.Set(i, 0, 1)
		for j, v := range row {
			a.Set(i, j+1, v)
		}
	}
	b := mat.NewVecDense(n, append([]float64(nil), y...))

	var beta mat.VecDense
	solved := false
	if n > p {
		var qr mat.QR
		qr.Factorize(a)
		solved = qr.SolveVecTo(&beta, false, b) == nil
	}
	if !solved {
		if err := ridge(&beta, a, b); err != nil {
			return err
		}
	}

	m.p = LinearParams{Intercept: beta.AtVec(0), Weights: make([]float64, p)}
	for j := range m.p.Weights {
		m.p.Weights[j] = beta.AtVec(j + 1)
	}
	return nil
}

// ridge solves (AᵀA + λD) β = Aᵀb where D leaves the intercept unpenalized
func ridge(dst *mat.VecDense, a *mat.Dense, b *mat.VecDense) error {
	_, cols := a.Dims()
	var ata mat.Dense
	ata.Mul(a.T(), a)
	sym := mat.NewSymDense(cols, nil)
	for i := 0; i < cols; i++ {
		for j := i; j < cols; j++ {
			v := ata.At(i, j)
			if i == j && i > 0 {
				v += ridgeLambda
			}
			sym.SetSym(i, j, v)
		}
	}
	var atb mat.VecDense
	atb.MulVec(a.T(), b)

	var chol mat.Cholesky
	if !chol.Factorize(sym) {
		return errSingular
	}
	return chol.SolveVecTo(dst, &atb)
}

func (m *linearModel) predict(x []float64) float64 {
	out := m.p.Intercept
	for j, w := range m.p.Weights {
		out += w * x[j]
	}
	return out
}

func (m *linearModel) proba([]float64) []float64 { return nil }

// importance of a standardized weight is |β·σ| in raw units
func (m *linearModel) importance() []float64 {
	out := make([]float64, len(m.p.Weights))
	for j, w := range m.p.Weights {
		out[j] = math.Abs(w)
	}
	return out
}

func (m *linearModel) params() Params { return Params{Linear: &m.p} }

func (m *linearModel) hyperparameters() map[string]float64 { return map[string]float64{} }

// contributions splits a prediction into per-feature pushes away from the
// intercept: β·z, which equals the raw β·(x - mean)
func (m *linearModel) contributions(z []float64) []float64 {
	out := make([]float64, len(z))
	for j, w := range m.p.Weights {
		out[j] = w * z[j]
	}
	return out
}
