// Package analysis is the caller-side façade over the statistics adapters.
// It memoizes results per dataset content hash and fans independent
// analyses out concurrently for a comprehensive report.
package analysis

import (
	"fmt"
	"sync/atomic"

	"goanalyst/adapters/stats/clustering"
	"goanalyst/adapters/stats/correlation"
	"goanalyst/adapters/stats/descriptive"
	"goanalyst/adapters/stats/hypothesis"
	"goanalyst/adapters/stats/reduction"
	"goanalyst/adapters/stats/timeseries"
	"goanalyst/domain/core"
	"goanalyst/domain/dataset"
	"goanalyst/domain/stats"
	"goanalyst/internal"
	"goanalyst/internal/errors"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultCacheSize   = 256
	DefaultConcurrency = 4
)

// Options configures an Analyzer
type Options struct {
	CacheSize int
	// Concurrency bounds the analyses Comprehensive runs at once
	Concurrency          int
	Seed                 int64
	Alpha                float64
	CorrelationThreshold float64
	Logger               *internal.Logger
}

// DefaultOptions returns the seeded defaults
func DefaultOptions() Options {
	return Options{
		CacheSize:            DefaultCacheSize,
		Concurrency:          DefaultConcurrency,
		Seed:                 clustering.DefaultSeed,
		Alpha:                hypothesis.DefaultAlpha,
		CorrelationThreshold: correlation.DefaultThreshold,
	}
}

// CacheStats reports memo effectiveness
type CacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Size   int   `json:"size"`
}

// Analyzer runs analyses and remembers their results. Results are keyed by
// dataset content hash plus operation parameters, so a changed dataset never
// sees a stale entry. Cached results are shared and must not be mutated.
type Analyzer struct {
	opts   Options
	cache  *lru.Cache[core.Hash, interface{}]
	flight singleflight.Group
	logger *internal.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// New creates an Analyzer
func New(opts Options) (*Analyzer, error) {
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Alpha <= 0 || opts.Alpha >= 1 {
		opts.Alpha = hypothesis.DefaultAlpha
	}
	if opts.CorrelationThreshold <= 0 {
		opts.CorrelationThreshold = correlation.DefaultThreshold
	}
	if opts.Logger == nil {
		opts.Logger = internal.DefaultLogger.With("Analyzer")
	}
	cache, err := lru.New[core.Hash, interface{}](opts.CacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create analysis cache")
	}
	return &Analyzer{opts: opts, cache: cache, logger: opts.Logger}, nil
}

// Stats returns cache counters
func (a *Analyzer) Stats() CacheStats {
	return CacheStats{Hits: a.hits.Load(), Misses: a.misses.Load(), Size: a.cache.Len()}
}

// Purge drops every memoized result
func (a *Analyzer) Purge() { a.cache.Purge() }

// memo returns the cached result for (dataset, operation, params) or computes
// it once, collapsing concurrent identical requests. Errors are not cached.
func (a *Analyzer) memo(ds *dataset.Dataset, operation string, params map[string]interface{}, compute func() (interface{}, error)) (interface{}, error) {
	if ds == nil {
		return nil, errors.Empty(operation)
	}
	if params == nil {
		params = map[string]interface{}{}
	}
	params["dataset"] = ds.Hash().String()
	key := core.ComputeParamsHash(operation, params)

	if v, ok := a.cache.Get(key); ok {
		a.hits.Add(1)
		a.logger.Trace("cache hit %s %s", operation, key.Short())
		return v, nil
	}

	v, err, _ := a.flight.Do(key.String(), func() (interface{}, error) {
		if v, ok := a.cache.Get(key); ok {
			a.hits.Add(1)
			return v, nil
		}
		a.misses.Add(1)
		v, err := compute()
		if err != nil {
			return nil, err
		}
		a.cache.Add(key, v)
		return v, nil
	})
	return v, err
}

// Describe computes descriptive statistics for one numeric column
func (a *Analyzer) Describe(ds *dataset.Dataset, column string) (stats.ColumnStatistics, error) {
	v, err := a.memo(ds, "describe", map[string]interface{}{"column": column}, func() (interface{}, error) {
		if _, ok := ds.Column(column); !ok {
			return nil, errors.ColumnNotFound(column)
		}
		values, err := ds.Floats(column)
		if err != nil {
			return nil, err
		}
		return descriptive.Compute(values)
	})
	if err != nil {
		return stats.ColumnStatistics{}, err
	}
	return v.(stats.ColumnStatistics), nil
}

// Correlations computes the correlation matrix. A zero threshold uses the
// analyzer's configured threshold.
func (a *Analyzer) Correlations(ds *dataset.Dataset, columns []string, method stats.CorrelationMethod, threshold float64) (*stats.CorrelationMatrix, error) {
	if threshold <= 0 {
		threshold = a.opts.CorrelationThreshold
	}
	opts := correlation.Options{Method: method, Threshold: threshold}
	v, err := a.memo(ds, "correlations", map[string]interface{}{"columns": columns, "method": method, "threshold": threshold}, func() (interface{}, error) {
		return correlation.Matrix(ds, columns, opts)
	})
	if err != nil {
		return nil, err
	}
	return v.(*stats.CorrelationMatrix), nil
}

// Regression fits y on x
func (a *Analyzer) Regression(ds *dataset.Dataset, x, y string) (*stats.RegressionModel, error) {
	v, err := a.memo(ds, "regression", map[string]interface{}{"x": x, "y": y}, func() (interface{}, error) {
		return correlation.FitRegression(ds, x, y)
	})
	if err != nil {
		return nil, err
	}
	return v.(*stats.RegressionModel), nil
}

// PCA projects the given (or all numeric) columns onto principal components
func (a *Analyzer) PCA(ds *dataset.Dataset, columns []string, components int) (*stats.PCAResult, error) {
	v, err := a.memo(ds, "pca", map[string]interface{}{"columns": columns, "components": components}, func() (interface{}, error) {
		return reduction.PCA(ds, columns, reduction.Options{Components: components})
	})
	if err != nil {
		return nil, err
	}
	return v.(*stats.PCAResult), nil
}

// Decompose splits a dated series into trend, seasonal and residual parts.
// period <= 0 detects the period.
func (a *Analyzer) Decompose(ds *dataset.Dataset, dateColumn, valueColumn string, period int) (*stats.TimeSeriesDecomposition, error) {
	v, err := a.memo(ds, "decompose", map[string]interface{}{"date": dateColumn, "value": valueColumn, "period": period}, func() (interface{}, error) {
		return timeseries.Decompose(ds, dateColumn, valueColumn, timeseries.Options{Period: period})
	})
	if err != nil {
		return nil, err
	}
	return v.(*stats.TimeSeriesDecomposition), nil
}

// Forecast extends a column's linear trend, taking rows in dataset order
func (a *Analyzer) Forecast(ds *dataset.Dataset, column string, periods int) (*stats.Forecast, error) {
	v, err := a.memo(ds, "forecast", map[string]interface{}{"column": column, "periods": periods}, func() (interface{}, error) {
		if _, ok := ds.Column(column); !ok {
			return nil, errors.ColumnNotFound(column)
		}
		values, err := ds.Floats(column)
		if err != nil {
			return nil, err
		}
		return timeseries.Forecast(values, periods)
	})
	if err != nil {
		return nil, err
	}
	return v.(*stats.Forecast), nil
}

// Trend summarizes the direction and volatility of every numeric column that
// has enough values; columns that are too short are left out
func (a *Analyzer) Trend(ds *dataset.Dataset) (map[string]stats.TrendSummary, error) {
	v, err := a.memo(ds, "trend", nil, func() (interface{}, error) {
		out := map[string]stats.TrendSummary{}
		for _, name := range ds.NumericColumns() {
			values, err := ds.Floats(name)
			if err != nil {
				return nil, err
			}
			summary, err := timeseries.Summarize(values)
			if err != nil {
				if core.IsInputError(err) {
					continue
				}
				return nil, err
			}
			out[name] = summary
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]stats.TrendSummary), nil
}

// Cluster runs seeded k-means; k <= 0 picks k with the elbow method
func (a *Analyzer) Cluster(ds *dataset.Dataset, columns []string, k int) (*stats.ClusterAssignment, error) {
	opts := clustering.Options{Seed: a.opts.Seed}
	v, err := a.memo(ds, "cluster", map[string]interface{}{"columns": columns, "k": k, "seed": opts.Seed}, func() (interface{}, error) {
		return clustering.Run(ds, columns, k, opts)
	})
	if err != nil {
		return nil, err
	}
	return v.(*stats.ClusterAssignment), nil
}

// Test runs a hypothesis test; alpha <= 0 uses the configured alpha
func (a *Analyzer) Test(kind stats.TestKind, ds *dataset.Dataset, columns []string, alpha float64) (*stats.HypothesisTestResult, error) {
	if alpha <= 0 {
		alpha = a.opts.Alpha
	}
	v, err := a.memo(ds, "test", map[string]interface{}{"kind": kind, "columns": columns, "alpha": alpha}, func() (interface{}, error) {
		return hypothesis.Run(kind, ds, columns, alpha)
	})
	if err != nil {
		return nil, err
	}
	return v.(*stats.HypothesisTestResult), nil
}

// Drivers ranks the features that explain a numeric target
func (a *Analyzer) Drivers(ds *dataset.Dataset, target string, features []string) (*DriverAnalysis, error) {
	v, err := a.memo(ds, "drivers", map[string]interface{}{"target": target, "features": features}, func() (interface{}, error) {
		return Drivers(ds, target, features)
	})
	if err != nil {
		return nil, err
	}
	return v.(*DriverAnalysis), nil
}

// Summary describes the shape and quality of a dataset
func (a *Analyzer) Summary(ds *dataset.Dataset) (*DataSummary, error) {
	v, err := a.memo(ds, "summary", nil, func() (interface{}, error) {
		return Summarize(ds)
	})
	if err != nil {
		return nil, err
	}
	return v.(*DataSummary), nil
}

func (a *Analyzer) String() string {
	s := a.Stats()
	return fmt.Sprintf("Analyzer{cache=%d hits=%d misses=%d}", s.Size, s.Hits, s.Misses)
}
