package automl

import (
	"sort"
)

// TreeNode is one node of a flattened CART tree. Internal nodes send
// x[Feature] <= Threshold to Left. Leaves carry the mean target (regression)
// or the majority class index plus class probabilities (classification).
type TreeNode struct {
	Leaf      bool      `json:"leaf" yaml:"leaf"`
	Feature   int       `json:"feature,omitempty" yaml:"feature,omitempty"`
	Threshold float64   `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	Left      int       `json:"left,omitempty" yaml:"left,omitempty"`
	Right     int       `json:"right,omitempty" yaml:"right,omitempty"`
	Value     float64   `json:"value" yaml:"value"`
	Probs     []float64 `json:"probs,omitempty" yaml:"probs,omitempty"`
	Samples   int       `json:"samples" yaml:"samples"`
}

// TreeParams is a fitted CART tree; node 0 is the root
type TreeParams struct {
	MaxDepth int        `json:"max_depth" yaml:"max_depth"`
	MinLeaf  int        `json:"min_leaf" yaml:"min_leaf"`
	Nodes    []TreeNode `json:"nodes" yaml:"nodes"`
}

// treeModel grows a CART tree: variance reduction for regression, Gini
// impurity for classification. Splits are exhaustive over midpoints between
// distinct sorted feature values; the first best split in feature order wins.
type treeModel struct {
	p              TreeParams
	classification bool
	classes        int
	gain           []float64
}

func newTree(classification bool, classes, maxDepth, minLeaf int) *treeModel {
	return &treeModel{
		classification: classification,
		classes:        classes,
		p:              TreeParams{MaxDepth: maxDepth, MinLeaf: minLeaf},
	}
}

func (t *treeModel) fit(X [][]float64, y []float64) error {
	t.p.Nodes = nil
	t.gain = make([]float64, len(X[0]))
	idx := make([]int, len(X))
	for i := range idx {
		idx[i] = i
	}
	t.build(X, y, idx, 0)
	return nil
}

func (t *treeModel) build(X [][]float64, y []float64, idx []int, depth int) int {
	id := len(t.p.Nodes)
	t.p.Nodes = append(t.p.Nodes, t.leaf(y, idx))

	if depth >= t.p.MaxDepth || len(idx) < 2*t.p.MinLeaf {
		return id
	}
	parent := t.impurity(y, idx)
	if parent <= 1e-12 {
		return id
	}

	bestFeature, bestThreshold, bestImpurity := -1, 0.0, parent
	order := make([]int, len(idx))
	for f := range X[0] {
		copy(order, idx)
		sort.SliceStable(order, func(a, b int) bool { return X[order[a]][f] < X[order[b]][f] })

		acc := t.newAccumulator(y, order)
		for k := 1; k < len(order); k++ {
			acc.move(y[order[k-1]])
			lo, hi := X[order[k-1]][f], X[order[k]][f]
			if lo == hi || k < t.p.MinLeaf || len(order)-k < t.p.MinLeaf {
				continue
			}
			if imp := acc.impurity(); imp < bestImpurity-1e-12 {
				bestFeature, bestThreshold, bestImpurity = f, (lo+hi)/2, imp
			}
		}
	}
	if bestFeature < 0 {
		return id
	}
	t.gain[bestFeature] += parent - bestImpurity

	var left, right []int
	for _, i := range idx {
		if X[i][bestFeature] <= bestThreshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	l := t.build(X, y, left, depth+1)
	r := t.build(X, y, right, depth+1)

	node := &t.p.Nodes[id]
	node.Leaf = false
	node.Feature = bestFeature
	node.Threshold = bestThreshold
	node.Left, node.Right = l, r
	return id
}

func (t *treeModel) leaf(y []float64, idx []int) TreeNode {
	node := TreeNode{Leaf: true, Samples: len(idx)}
	if !t.classification {
		sum := 0.0
		for _, i := range idx {
			sum += y[i]
		}
		node.Value = sum / float64(len(idx))
		return node
	}
	node.Probs = make([]float64, t.classes)
	for _, i := range idx {
		node.Probs[int(y[i])]++
	}
	for c := range node.Probs {
		node.Probs[c] /= float64(len(idx))
	}
	node.Value = float64(argmax(node.Probs))
	return node
}

// impurity is the total squared error (regression) or n times the Gini
// index (classification) of the rows in idx
func (t *treeModel) impurity(y []float64, idx []int) float64 {
	acc := t.newAccumulator(y, idx)
	return acc.rightImpurity()
}

// accumulator tracks left/right sufficient statistics while rows move from
// the right side of a split to the left
type accumulator struct {
	classification bool
	nl, nr         float64
	suml, sumr     float64
	sql, sqr       float64
	cl, cr         []float64
}

func (t *treeModel) newAccumulator(y []float64, idx []int) *accumulator {
	a := &accumulator{classification: t.classification}
	if t.classification {
		a.cl = make([]float64, t.classes)
		a.cr = make([]float64, t.classes)
	}
	for _, i := range idx {
		v := y[i]
		a.nr++
		if a.classification {
			a.cr[int(v)]++
			continue
		}
		a.sumr += v
		a.sqr += v * v
	}
	return a
}

func (a *accumulator) move(v float64) {
	a.nl++
	a.nr--
	if a.classification {
		a.cl[int(v)]++
		a.cr[int(v)]--
		return
	}
	a.suml += v
	a.sumr -= v
	a.sql += v * v
	a.sqr -= v * v
}

func (a *accumulator) impurity() float64 {
	return side(a.classification, a.nl, a.suml, a.sql, a.cl) + a.rightImpurity()
}

func (a *accumulator) rightImpurity() float64 {
	return side(a.classification, a.nr, a.sumr, a.sqr, a.cr)
}

func side(classification bool, n, sum, sq float64, counts []float64) float64 {
	if n == 0 {
		return 0
	}
	if !classification {
		sse := sq - sum*sum/n
		if sse < 0 {
			return 0
		}
		return sse
	}
	purity := 0.0
	for _, c := range counts {
		purity += c * c
	}
	return n - purity/n
}

func (t *treeModel) walk(x []float64) TreeNode {
	node := t.p.Nodes[0]
	for !node.Leaf {
		if x[node.Feature] <= node.Threshold {
			node = t.p.Nodes[node.Left]
		} else {
			node = t.p.Nodes[node.Right]
		}
	}
	return node
}

func (t *treeModel) predict(x []float64) float64 { return t.walk(x).Value }

func (t *treeModel) proba(x []float64) []float64 {
	if !t.classification {
		return nil
	}
	probs := t.walk(x).Probs
	out := make([]float64, len(probs))
	copy(out, probs)
	return out
}

// importance is the total impurity decrease credited to each feature
func (t *treeModel) importance() []float64 { return t.gain }

func (t *treeModel) params() Params { return Params{Tree: &t.p} }

func (t *treeModel) hyperparameters() map[string]float64 {
	return map[string]float64{
		"max_depth": float64(t.p.MaxDepth),
		"min_leaf":  float64(t.p.MinLeaf),
	}
}
