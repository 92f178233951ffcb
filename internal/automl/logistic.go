package automl

import (
	"math"
)

const (
	logisticLearningRate = 0.5
	logisticL2           = 1e-3
)

// LogisticParams is a multinomial (softmax) logistic regression: one weight
// row and bias per class
type LogisticParams struct {
	Weights      [][]float64 `json:"weights" yaml:"weights"`
	Biases       []float64   `json:"biases" yaml:"biases"`
	LearningRate float64     `json:"learning_rate" yaml:"learning_rate"`
	Iterations   int         `json:"iterations" yaml:"iterations"`
}

type logisticModel struct {
	p       LogisticParams
	classes int
}

func newLogistic(classes, iterations int) *logisticModel {
	return &logisticModel{
		classes: classes,
		p:       LogisticParams{LearningRate: logisticLearningRate, Iterations: iterations},
	}
}

// fit runs full-batch gradient descent on the L2-regularized cross entropy
// from zero weights, so the result is deterministic
func (m *logisticModel) fit(X [][]float64, y []float64) error {
	n, p, k := len(X), len(X[0]), m.classes
	w := make([][]float64, k)
	gw := make([][]float64, k)
	for c := range w {
		w[c] = make([]float64, p)
		gw[c] = make([]float64, p)
	}
	b := make([]float64, k)
	gb := make([]float64, k)
	probs := make([]float64, k)

	for it := 0; it < m.p.Iterations; it++ {
		for c := range gw {
			for j := range gw[c] {
				gw[c][j] = 0
			}
			gb[c] = 0
		}
		for i, x := range X {
			softmax(w, b, x, probs)
			label := int(y[i])
			for c := 0; c < k; c++ {
				diff := probs[c]
				if c == label {
					diff--
				}
				gb[c] += diff
				for j, v := range x {
					gw[c][j] += diff * v
				}
			}
		}
		scale := m.p.LearningRate / float64(n)
		for c := 0; c < k; c++ {
			b[c] -= scale * gb[c]
			for j := range w[c] {
				w[c][j] -= scale*gw[c][j] + m.p.LearningRate*logisticL2*w[c][j]
			}
		}
	}
	m.p.Weights, m.p.Biases = w, b
	return nil
}

func softmax(w [][]float64, b, x, out []float64) {
	maxLogit := math.Inf(-1)
	for c := range w {
		z := b[c]
		for j, v := range x {
			z += w[c][j] * v
		}
		out[c] = z
		if z > maxLogit {
			maxLogit = z
		}
	}
	total := 0.0
	for c := range out {
		out[c] = math.Exp(out[c] - maxLogit)
		total += out[c]
	}
	for c := range out {
		out[c] /= total
	}
}

func (m *logisticModel) proba(x []float64) []float64 {
	out := make([]float64, len(m.p.Biases))
	softmax(m.p.Weights, m.p.Biases, x, out)
	return out
}

func (m *logisticModel) predict(x []float64) float64 {
	return float64(argmax(m.proba(x)))
}

// importance is the mean absolute weight of a feature across classes
func (m *logisticModel) importance() []float64 {
	if len(m.p.Weights) == 0 {
		return nil
	}
	out := make([]float64, len(m.p.Weights[0]))
	for _, row := range m.p.Weights {
		for j, v := range row {
			out[j] += math.Abs(v) / float64(len(m.p.Weights))
		}
	}
	return out
}

func (m *logisticModel) params() Params { return Params{Logistic: &m.p} }

func (m *logisticModel) hyperparameters() map[string]float64 {
	return map[string]float64{
		"learning_rate": m.p.LearningRate,
		"iterations":    float64(m.p.Iterations),
		"l2":            logisticL2,
	}
}
