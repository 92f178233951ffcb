package automl

import (
	"sort"
)

// KNNParams stores the standardized training rows a k-nearest-neighbours
// model votes over
type KNNParams struct {
	K       int         `json:"k" yaml:"k"`
	Classes int         `json:"classes,omitempty" yaml:"classes,omitempty"`
	Points  [][]float64 `json:"points" yaml:"points"`
	Targets []float64   `json:"targets" yaml:"targets"`
}

// knnModel averages (regression) or votes (classification) over the k
// closest training rows by Euclidean distance. Equal distances keep the
// earlier training row; tied votes go to the lower class index.
type knnModel struct {
	p              KNNParams
	classification bool
}

func newKNN(classification bool, classes, k int) *knnModel {
	return &knnModel{classification: classification, p: KNNParams{K: k, Classes: classes}}
}

func (m *knnModel) fit(X [][]float64, y []float64) error {
	m.p.Points = make([][]float64, len(X))
	for i, row := range X {
		m.p.Points[i] = append([]float64(nil), row...)
	}
	m.p.Targets = append([]float64(nil), y...)
	if m.p.K > len(X) {
		m.p.K = len(X)
	}
	return nil
}

func (m *knnModel) neighbours(x []float64) []int {
	idx := make([]int, len(m.p.Points))
	dist := make([]float64, len(m.p.Points))
	for i, p := range m.p.Points {
		idx[i] = i
		for j, v := range p {
			d := v - x[j]
			dist[i] += d * d
		}
	}
	sort.SliceStable(idx, func(a, b int) bool { return dist[idx[a]] < dist[idx[b]] })
	k := m.p.K
	if k < 1 {
		k = 1
	}
	if k > len(idx) {
		k = len(idx)
	}
	return idx[:k]
}

func (m *knnModel) predict(x []float64) float64 {
	if m.classification {
		return float64(argmax(m.proba(x)))
	}
	near := m.neighbours(x)
	sum := 0.0
	for _, i := range near {
		sum += m.p.Targets[i]
	}
	return sum / float64(len(near))
}

func (m *knnModel) proba(x []float64) []float64 {
	if !m.classification {
		return nil
	}
	near := m.neighbours(x)
	out := make([]float64, m.p.Classes)
	for _, i := range near {
		out[int(m.p.Targets[i])]++
	}
	for c := range out {
		out[c] /= float64(len(near))
	}
	return out
}

// importance is nil: k-NN has no weights, so training falls back to
// permutation importance
func (m *knnModel) importance() []float64 { return nil }

func (m *knnModel) params() Params { return Params{KNN: &m.p} }

func (m *knnModel) hyperparameters() map[string]float64 {
	return map[string]float64{"k": float64(m.p.K)}
}
