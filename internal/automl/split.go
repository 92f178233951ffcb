package automl

import (
	"math"
	"math/rand"
)

// trainValidationSplit shuffles row indices with the seed and holds out
// fraction of them (at least one row, never all of them) for validation
func trainValidationSplit(n int, fraction float64, seed int64) (train, validation []int) {
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	hold := int(math.Round(float64(n) * fraction))
	if hold < 1 {
		hold = 1
	}
	if hold >= n {
		hold = n - 1
	}
	return perm[hold:], perm[:hold]
}

// kFolds partitions a seeded permutation of n rows into k folds whose sizes
// differ by at most one
func kFolds(n, k int, seed int64) [][]int {
	if k > n {
		k = n
	}
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	folds := make([][]int, k)
	for i, row := range perm {
		folds[i%k] = append(folds[i%k], row)
	}
	return folds
}

// complement returns the rows of 0..n-1 that are not in fold
func complement(n int, fold []int) []int {
	skip := make(map[int]bool, len(fold))
	for _, i := range fold {
		skip[i] = true
	}
	out := make([]int, 0, n-len(fold))
	for i := 0; i < n; i++ {
		if !skip[i] {
			out = append(out, i)
		}
	}
	return out
}

func selectRows(X [][]float64, y []float64, idx []int) ([][]float64, []float64) {
	xs := make([][]float64, len(idx))
	ys := make([]float64, len(idx))
	for i, r := range idx {
		xs[i] = X[r]
		ys[i] = y[r]
	}
	return xs, ys
}
