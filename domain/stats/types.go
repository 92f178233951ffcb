package stats

import (
	"math"
	"time"
)

// ============================================================================
// DESCRIPTIVE
// ============================================================================

// ColumnStatistics is an immutable snapshot of one numeric column.
// Recompute it wholesale when the data changes.
type ColumnStatistics struct {
	Count    int       `json:"count"`
	Mean     float64   `json:"mean"`
	Median   float64   `json:"median"`
	Mode     float64   `json:"mode"`
	Variance float64   `json:"variance"` // sample variance, n-1 denominator
	StdDev   float64   `json:"std_dev"`
	Skewness float64   `json:"skewness"` // adjusted Fisher-Pearson
	Kurtosis float64   `json:"kurtosis"` // excess kurtosis
	Q1       float64   `json:"q1"`
	Q2       float64   `json:"q2"`
	Q3       float64   `json:"q3"`
	IQR      float64   `json:"iqr"`
	Min      float64   `json:"min"`
	Max      float64   `json:"max"`
	Outliers []float64 `json:"outliers"`
}

// ============================================================================
// CORRELATION & REGRESSION
// ============================================================================

// CorrelationMethod selects the coefficient used for a matrix
type CorrelationMethod string

const (
	MethodPearson  CorrelationMethod = "pearson"
	MethodSpearman CorrelationMethod = "spearman"
	MethodKendall  CorrelationMethod = "kendall"
)

// CorrelationPair is one off-diagonal entry of a correlation matrix
type CorrelationPair struct {
	A           string  `json:"a"`
	B           string  `json:"b"`
	Coefficient float64 `json:"coefficient"`
	Strength    string  `json:"strength"` // Strong, Moderate, Weak, Very Weak
	N           int     `json:"n"`        // pairwise complete observations
}

// CorrelationMatrix is symmetric with an exact 1.0 diagonal
type CorrelationMatrix struct {
	Method      CorrelationMethod `json:"method"`
	Columns     []string          `json:"columns"`
	Values      [][]float64       `json:"values"`
	Threshold   float64           `json:"threshold"`
	StrongPairs []CorrelationPair `json:"strong_pairs"` // |r| >= Threshold, strongest first
	TopPairs    []CorrelationPair `json:"top_pairs"`    // all pairs, strongest first
}

// Get returns the coefficient for a column pair
func (m *CorrelationMatrix) Get(a, b string) (float64, bool) {
	i, j := -1, -1
	for k, c := range m.Columns {
		if c == a {
			i = k
		}
		if c == b {
			j = k
		}
	}
	if i < 0 || j < 0 {
		return 0, false
	}
	return m.Values[i][j], true
}

// RegressionModel is a fitted simple linear regression y = Slope*x + Intercept
type RegressionModel struct {
	XColumn   string  `json:"x_column"`
	YColumn   string  `json:"y_column"`
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	RSquared  float64 `json:"r_squared"`
	N         int     `json:"n"`
}

// Predict returns the fitted value at x
func (m RegressionModel) Predict(x float64) float64 {
	return m.Slope*x + m.Intercept
}

// ============================================================================
// DIMENSIONALITY REDUCTION
// ============================================================================

// PCAResult holds a principal component analysis of standardized columns
type PCAResult struct {
	Columns            []string           `json:"columns"`
	Eigenvalues        []float64          `json:"eigenvalues"`         // descending
	ExplainedVariance  []float64          `json:"explained_variance"`  // percent per component
	CumulativeVariance []float64          `json:"cumulative_variance"` // running sum, percent
	Loadings           [][]float64        `json:"loadings"`            // component x column
	TransformedData    [][]float64        `json:"transformed_data"`    // row x retained component
	FeatureImportance  map[string]float64 `json:"feature_importance"`  // 0-1, max is 1
	Components         int                `json:"components"`          // retained components
}

// ============================================================================
// TIME SERIES
// ============================================================================

// TrendDirection summarizes where a trend is heading
type TrendDirection string

const (
	TrendRising  TrendDirection = "rising"
	TrendFalling TrendDirection = "falling"
	TrendFlat    TrendDirection = "flat"
)

// TimeSeriesDecomposition is an additive decomposition; the series slices are
// parallel and Original[i] == Trend[i] + Seasonal[i] + Residual[i].
type TimeSeriesDecomposition struct {
	ValueColumn     string         `json:"value_column"`
	DateColumn      string         `json:"date_column"`
	Dates           []time.Time    `json:"dates"`
	Original        []float64      `json:"original"`
	Trend           []float64      `json:"trend"`
	Seasonal        []float64      `json:"seasonal"`
	Residual        []float64      `json:"residual"`
	Period          int            `json:"period"`            // 1 when no seasonal period applies
	TrendWindow     int            `json:"trend_window"`      // moving-average window
	TrendDefinedMin int            `json:"trend_defined_min"` // first index with a centered average
	TrendDefinedMax int            `json:"trend_defined_max"` // last index with a centered average
	SeasonalIndices []float64      `json:"seasonal_indices"`  // one per position within period
	Direction       TrendDirection `json:"direction"`
	HasSeasonality  bool           `json:"has_seasonality"`
	Explanation     string         `json:"explanation"`
}

// Forecast is a linear-trend projection with symmetric confidence bands
type Forecast struct {
	Values     []float64 `json:"values"`
	Upper      []float64 `json:"upper"`
	Lower      []float64 `json:"lower"`
	Slope      float64   `json:"slope"`
	Intercept  float64   `json:"intercept"`
	RSquared   float64   `json:"r_squared"`
	StdError   float64   `json:"std_error"`
	Periods    int       `json:"periods"`
	Historical int       `json:"historical"`
}

// TrendSummary describes a single series' linear trend and volatility
type TrendSummary struct {
	Mean         float64        `json:"mean"`
	StdDev       float64        `json:"std_dev"`
	Min          float64        `json:"min"`
	Max          float64        `json:"max"`
	Slope        float64        `json:"slope"`
	RSquared     float64        `json:"r_squared"`
	PValue       Significance   `json:"p_value"`
	Direction    TrendDirection `json:"direction"`
	Strength     string         `json:"strength"`   // strong, moderate, weak
	Volatility   string         `json:"volatility"` // high, moderate, low
	NextForecast *float64       `json:"next_forecast,omitempty"`
}

// ============================================================================
// CLUSTERING
// ============================================================================

// ClusterAssignment is a k-means grouping; every row has exactly one cluster in [0, K)
type ClusterAssignment struct {
	K           int              `json:"k"`
	Columns     []string         `json:"columns"`
	Centroids   [][]float64      `json:"centroids"` // original units
	Assignments []int            `json:"assignments"`
	Sizes       []int            `json:"sizes"`
	Inertia     float64          `json:"inertia"` // within-cluster sum of squares, standardized space
	Iterations  int              `json:"iterations"`
	Converged   bool             `json:"converged"`
	Seed        int64            `json:"seed"`
	Profiles    []ClusterProfile `json:"profiles"`
}

// ClusterProfile characterizes one cluster against the whole dataset
type ClusterProfile struct {
	Cluster    int                `json:"cluster"`
	Size       int                `json:"size"`
	Percentage float64            `json:"percentage"`
	Means      map[string]float64 `json:"means"`
	VsOverall  map[string]float64 `json:"vs_overall"` // (cluster mean - overall mean) / overall std
}

// ============================================================================
// HYPOTHESIS TESTING
// ============================================================================

// TestKind names a hypothesis test
type TestKind string

const (
	TestWelchT      TestKind = "t-test"
	TestChiSquare   TestKind = "chi-square"
	TestANOVA       TestKind = "anova"
	TestCorrelation TestKind = "correlation"
	TestNormality   TestKind = "normality"
)

// Significance is a p-value that may be undefined when the statistic degenerates
type Significance struct {
	Value   float64 `json:"value"`
	Defined bool    `json:"defined"`
}

// DefinedSignificance wraps a computed p-value, clamped to [0,1]; NaN yields an undefined value
func DefinedSignificance(p float64) Significance {
	if math.IsNaN(p) {
		return Significance{}
	}
	return Significance{Value: math.Max(0, math.Min(1, p)), Defined: true}
}

// Below reports whether the p-value is defined and below alpha
func (s Significance) Below(alpha float64) bool {
	return s.Defined && s.Value < alpha
}

// GroupSummary describes one level of a grouping column
type GroupSummary struct {
	Name     string  `json:"name"`
	N        int     `json:"n"`
	Mean     float64 `json:"mean"`
	Variance float64 `json:"variance"`
}

// HypothesisTestResult is the outcome of a single test
type HypothesisTestResult struct {
	Kind             TestKind       `json:"kind"`
	Columns          []string       `json:"columns"`
	Statistic        float64        `json:"statistic"`
	DegreesOfFreedom float64        `json:"degrees_of_freedom"`
	DF2              float64        `json:"df2,omitempty"` // denominator df for ANOVA
	PValue           Significance   `json:"p_value"`
	Alpha            float64        `json:"alpha"`
	RejectNull       bool           `json:"reject_null"`
	EffectSize       float64        `json:"effect_size"` // Cohen's d, Cramer's V, eta squared or r
	N                int            `json:"n"`
	Groups           []GroupSummary `json:"groups,omitempty"`
	Interpretation   string         `json:"interpretation"`
}
