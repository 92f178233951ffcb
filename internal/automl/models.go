package automl

import (
	"fmt"

	"goanalyst/domain/core"
	"goanalyst/internal/errors"
)

var errSingular = errors.InternalError("least squares system is singular")

// Algorithm identifies a candidate model family
type Algorithm string

const (
	AlgorithmLinear       Algorithm = "linear"
	AlgorithmLogistic     Algorithm = "logistic"
	AlgorithmDecisionTree Algorithm = "decision_tree"
	AlgorithmKNN          Algorithm = "knn"
)

// AlgorithmsFor lists the candidates for a problem type in selection order
func AlgorithmsFor(problem ProblemType) []Algorithm {
	if problem == Classification {
		return []Algorithm{AlgorithmLogistic, AlgorithmDecisionTree, AlgorithmKNN}
	}
	return []Algorithm{AlgorithmLinear, AlgorithmDecisionTree, AlgorithmKNN}
}

// Params carries the fitted parameters of exactly one algorithm. All weights
// act on standardized features.
type Params struct {
	Linear   *LinearParams   `json:"linear,omitempty" yaml:"linear,omitempty"`
	Logistic *LogisticParams `json:"logistic,omitempty" yaml:"logistic,omitempty"`
	Tree     *TreeParams     `json:"tree,omitempty" yaml:"tree,omitempty"`
	KNN      *KNNParams      `json:"knn,omitempty" yaml:"knn,omitempty"`
}

// learner is a fitted or fittable candidate. Classification learners
// predict a class index and return class probabilities; regression learners
// return nil probabilities.
type learner interface {
	fit(X [][]float64, y []float64) error
	predict(x []float64) float64
	proba(x []float64) []float64
	// importance returns raw per-feature importances, or nil when the
	// algorithm has no intrinsic measure
	importance() []float64
	params() Params
	hyperparameters() map[string]float64
}

// candidate is one algorithm plus one hyperparameter draw
type candidate struct {
	algorithm Algorithm
	build     func() learner
	hyper     map[string]float64
}

// restore rebuilds a fitted learner from exported parameters. classes is the
// number of class labels and is ignored for regression.
func restore(algorithm Algorithm, problem ProblemType, p Params, features, classes int) (learner, error) {
	switch algorithm {
	case AlgorithmLinear:
		if p.Linear == nil || len(p.Linear.Weights) != features {
			return nil, missingParams(algorithm)
		}
		return &linearModel{p: *p.Linear}, nil
	case AlgorithmLogistic:
		if p.Logistic == nil || len(p.Logistic.Weights) != len(p.Logistic.Biases) || len(p.Logistic.Biases) < 2 {
			return nil, missingParams(algorithm)
		}
		for _, w := range p.Logistic.Weights {
			if len(w) != features {
				return nil, missingParams(algorithm)
			}
		}
		return &logisticModel{p: *p.Logistic}, nil
	case AlgorithmDecisionTree:
		if p.Tree == nil || !validTree(p.Tree.Nodes, features, classes, problem == Classification) {
			return nil, missingParams(algorithm)
		}
		return &treeModel{p: *p.Tree, classification: problem == Classification}, nil
	case AlgorithmKNN:
		if p.KNN == nil || len(p.KNN.Points) == 0 || len(p.KNN.Points) != len(p.KNN.Targets) {
			return nil, missingParams(algorithm)
		}
		if p.KNN.K < 1 || (problem == Classification && (p.KNN.Classes < 2 || p.KNN.Classes != classes)) {
			return nil, missingParams(algorithm)
		}
		for i, row := range p.KNN.Points {
			if len(row) != features {
				return nil, missingParams(algorithm)
			}
			if problem == Classification {
				c := p.KNN.Targets[i]
				if c < 0 || c >= float64(p.KNN.Classes) || c != float64(int(c)) {
					return nil, missingParams(algorithm)
				}
			}
		}
		return &knnModel{p: *p.KNN, classification: problem == Classification}, nil
	}
	return nil, errors.Unsupported("algorithm", string(algorithm), core.ErrUnsupportedAlgorithm)
}

// validTree checks that every split reads an existing feature and points
// forward to existing children, so a walk from the root always reaches a leaf,
// and that classification leaves carry one probability per class
func validTree(nodes []TreeNode, features, classes int, classification bool) bool {
	if len(nodes) == 0 {
		return false
	}
	for i, n := range nodes {
		if n.Leaf {
			if classification && len(n.Probs) != classes {
				return false
			}
			continue
		}
		if n.Feature < 0 || n.Feature >= features {
			return false
		}
		if n.Left <= i || n.Left >= len(nodes) || n.Right <= i || n.Right >= len(nodes) {
			return false
		}
	}
	return true
}

func missingParams(algorithm Algorithm) error {
	return errors.InvalidInput(fmt.Sprintf("model parameters for %s are missing or malformed", algorithm))
}

func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}
