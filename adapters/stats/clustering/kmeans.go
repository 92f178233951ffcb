// Package clustering groups rows with seeded k-means over standardized columns.
package clustering

import (
	"math"
	"math/rand"

	"goanalyst/adapters/stats/descriptive"
	"goanalyst/domain/dataset"
	"goanalyst/domain/stats"
	"goanalyst/internal/errors"
)

const (
	DefaultSeed          int64 = 42
	DefaultMaxIterations       = 300
	// MaxElbowK bounds automatic k selection
	MaxElbowK = 7
	// FallbackK is used when too few candidates exist for an elbow
	FallbackK = 3
)

// Options configures Run
type Options struct {
	Seed          int64
	MaxIterations int
}

// DefaultOptions returns the seeded defaults
func DefaultOptions() Options {
	return Options{Seed: DefaultSeed, MaxIterations: DefaultMaxIterations}
}

// Run clusters rows on the given numeric columns (all numeric columns when
// empty). k <= 0 selects k with the elbow method.
func Run(ds *dataset.Dataset, columns []string, k int, opts Options) (*stats.ClusterAssignment, error) {
	if ds == nil || ds.Len() == 0 {
		return nil, errors.Empty("clustering")
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}

	cols, err := resolveColumns(ds, columns)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, errors.InsufficientColumns("clustering", 1, 0)
	}

	n := ds.Len()
	if k > n {
		return nil, errors.InvalidInputf("cannot form %d clusters from %d rows", k, n)
	}

	raw := make([][]float64, len(cols))
	scaled := make([][]float64, len(cols))
	for j, name := range cols {
		values, err := ds.AlignedFloats(name)
		if err != nil {
			return nil, err
		}
		raw[j] = imputeMean(values)
		scaled[j] = descriptive.Standardize(values)
	}
	points := transpose(scaled, n)

	if k <= 0 {
		k = ElbowK(points, opts)
	}

	fit := fitKMeans(points, k, opts.Seed, opts.MaxIterations)

	centroids := make([][]float64, k)
	for c := range centroids {
		centroids[c] = make([]float64, len(cols))
	}
	for i, c := range fit.assign {
		for j := range cols {
			centroids[c][j] += raw[j][i]
		}
	}
	for c := range centroids {
		for j := range cols {
			centroids[c][j] /= float64(fit.sizes[c])
		}
	}

	return &stats.ClusterAssignment{
		K:           k,
		Columns:     cols,
		Centroids:   centroids,
		Assignments: fit.assign,
		Sizes:       fit.sizes,
		Inertia:     fit.inertia,
		Iterations:  fit.iterations,
		Converged:   fit.converged,
		Seed:        opts.Seed,
		Profiles:    profiles(cols, raw, fit.assign, fit.sizes, centroids),
	}, nil
}

// ElbowK picks k in [2, min(MaxElbowK, n/2)] at the largest second difference
// of inertia. Without three candidates it falls back to FallbackK capped at n.
func ElbowK(points [][]float64, opts Options) int {
	n := len(points)
	upper := MaxElbowK
	if n/2 < upper {
		upper = n / 2
	}
	if upper-2+1 < 3 {
		if n < FallbackK {
			return n
		}
		return FallbackK
	}

	inertia := make(map[int]float64, upper)
	for k := 2; k <= upper; k++ {
		inertia[k] = fitKMeans(points, k, opts.Seed, opts.MaxIterations).inertia
	}

	best, bestDrop := 2, math.Inf(-1)
	for k := 3; k < upper; k++ {
		drop := inertia[k-1] - 2*inertia[k] + inertia[k+1]
		if drop > bestDrop {
			best, bestDrop = k, drop
		}
	}
	return best
}

type kmeansFit struct {
	assign     []int
	sizes      []int
	centroids  [][]float64
	inertia    float64
	iterations int
	converged  bool
}

// fitKMeans runs Lloyd's algorithm from a k-means++ start. Equal distances
// resolve to the lower cluster index; no cluster is left empty.
func fitKMeans(points [][]float64, k int, seed int64, maxIter int) kmeansFit {
	rng := rand.New(rand.NewSource(seed))
	n := len(points)
	centroids := initPlusPlus(points, k, rng)

	assign := make([]int, n)
	for i := range assign {
		assign[i] = -1
	}

	fit := kmeansFit{}
	for it := 1; it <= maxIter; it++ {
		changed := false
		for i, p := range points {
			best := nearest(p, centroids)
			if assign[i] != best {
				assign[i] = best
				changed = true
			}
		}
		fit.iterations = it
		if !changed {
			fit.converged = true
			break
		}
		centroids = recompute(points, assign, k, centroids)
	}

	if fillEmpty(points, assign, centroids) {
		// the reported assignment is no longer a fixed point of Lloyd's step
		fit.converged = false
	}
	centroids = recompute(points, assign, k, centroids)

	fit.assign = assign
	fit.sizes = make([]int, k)
	for i, c := range assign {
		fit.sizes[c]++
		fit.inertia += squaredDistance(points[i], centroids[c])
	}
	fit.centroids = centroids
	return fit
}

// initPlusPlus seeds centroids with probability proportional to squared distance
func initPlusPlus(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(points)
	chosen := make([]bool, n)
	centroids := make([][]float64, 0, k)

	first := rng.Intn(n)
	chosen[first] = true
	centroids = append(centroids, clone(points[first]))

	dist := make([]float64, n)
	for len(centroids) < k {
		total := 0.0
		for i, p := range points {
			dist[i] = squaredDistance(p, centroids[nearest(p, centroids)])
			total += dist[i]
		}

		next := -1
		if total > 0 {
			r := rng.Float64() * total
			cumulative := 0.0
			for i, d := range dist {
				cumulative += d
				if d > 0 && cumulative >= r {
					next = i
					break
				}
			}
		}
		if next < 0 {
			// every point coincides with a centroid; take an unused row
			free := make([]int, 0, n)
			for i := range points {
				if !chosen[i] {
					free = append(free, i)
				}
			}
			next = free[rng.Intn(len(free))]
		}
		chosen[next] = true
		centroids = append(centroids, clone(points[next]))
	}
	return centroids
}

// recompute moves each centroid to its members' mean. An empty cluster is
// reseeded with the point farthest from its current centroid.
func recompute(points [][]float64, assign []int, k int, previous [][]float64) [][]float64 {
	dim := len(points[0])
	sums := make([][]float64, k)
	counts := make([]int, k)
	for c := range sums {
		sums[c] = make([]float64, dim)
	}
	for i, c := range assign {
		counts[c]++
		for j, v := range points[i] {
			sums[c][j] += v
		}
	}

	out := make([][]float64, k)
	for c := range out {
		if counts[c] == 0 {
			far := farthestPoint(points, assign, previous, counts)
			if far < 0 {
				out[c] = clone(previous[c])
				continue
			}
			out[c] = clone(points[far])
			continue
		}
		out[c] = make([]float64, dim)
		for j := range sums[c] {
			out[c][j] = sums[c][j] / float64(counts[c])
		}
	}
	return out
}

// fillEmpty moves the farthest point of a multi-member cluster into each
// empty one and reports whether any row was moved.
func fillEmpty(points [][]float64, assign []int, centroids [][]float64) bool {
	moved := false
	counts := make([]int, len(centroids))
	for _, c := range assign {
		counts[c]++
	}
	for c := range centroids {
		if counts[c] > 0 {
			continue
		}
		far := farthestPoint(points, assign, centroids, counts)
		if far < 0 {
			return moved
		}
		counts[assign[far]]--
		assign[far] = c
		counts[c]++
		centroids[c] = clone(points[far])
		moved = true
	}
	return moved
}

// farthestPoint returns the point farthest from its centroid among clusters
// with more than one member, or -1
func farthestPoint(points [][]float64, assign []int, centroids [][]float64, counts []int) int {
	far, farDist := -1, -1.0
	for i, c := range assign {
		if c < 0 || counts[c] < 2 {
			continue
		}
		if d := squaredDistance(points[i], centroids[c]); d > farDist {
			far, farDist = i, d
		}
	}
	return far
}

func nearest(p []float64, centroids [][]float64) int {
	best, bestDist := 0, math.Inf(1)
	for c, centroid := range centroids {
		if d := squaredDistance(p, centroid); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func squaredDistance(a, b []float64) float64 {
	sum := 0.0
	for j := range a {
		d := a[j] - b[j]
		sum += d * d
	}
	return sum
}

func clone(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}

func transpose(columns [][]float64, n int) [][]float64 {
	points := make([][]float64, n)
	for i := range points {
		points[i] = make([]float64, len(columns))
		for j := range columns {
			points[i][j] = columns[j][i]
		}
	}
	return points
}

func imputeMean(values []float64) []float64 {
	out := make([]float64, len(values))
	mean, err := descriptive.Mean(values)
	if err != nil {
		mean = 0
	}
	for i, v := range values {
		if math.IsNaN(v) {
			out[i] = mean
		} else {
			out[i] = v
		}
	}
	return out
}

// profiles compares each cluster's column means with the overall means, in
// units of the column's standard deviation
func profiles(cols []string, raw [][]float64, assign, sizes []int, centroids [][]float64) []stats.ClusterProfile {
	n := len(assign)
	overall := make([]float64, len(cols))
	sds := make([]float64, len(cols))
	for j := range cols {
		overall[j], _ = descriptive.Mean(raw[j])
		sds[j] = descriptive.StdDev(raw[j])
	}

	out := make([]stats.ClusterProfile, len(sizes))
	for c, size := range sizes {
		p := stats.ClusterProfile{
			Cluster:    c,
			Size:       size,
			Percentage: float64(size) / float64(n) * 100,
			Means:      make(map[string]float64, len(cols)),
			VsOverall:  make(map[string]float64, len(cols)),
		}
		for j, name := range cols {
			p.Means[name] = centroids[c][j]
			if sds[j] > 0 {
				p.VsOverall[name] = (centroids[c][j] - overall[j]) / sds[j]
			} else {
				p.VsOverall[name] = 0
			}
		}
		out[c] = p
	}
	return out
}

func resolveColumns(ds *dataset.Dataset, columns []string) ([]string, error) {
	if len(columns) == 0 {
		return ds.NumericColumns(), nil
	}
	seen := make(map[string]bool, len(columns))
	out := make([]string, 0, len(columns))
	for _, name := range columns {
		col, ok := ds.Column(name)
		if !ok {
			return nil, errors.ColumnNotFound(name)
		}
		if col.Role != dataset.RoleNumeric {
			return nil, errors.InvalidInputf("column %q is %s, not numeric", name, col.Role)
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out, nil
}
