package analysis

import (
	"context"

	"goanalyst/domain/core"
	"goanalyst/domain/dataset"
	"goanalyst/domain/stats"
	"goanalyst/internal/errors"
)

// Kind names an analysis that Run can dispatch
type Kind string

const (
	KindSummary       Kind = "summary"
	KindDescribe      Kind = "describe"
	KindCorrelations  Kind = "correlations"
	KindRegression    Kind = "regression"
	KindPCA           Kind = "pca"
	KindDecompose     Kind = "decompose"
	KindForecast      Kind = "forecast"
	KindTrends        Kind = "trends"
	KindClusters      Kind = "clusters"
	KindHypothesis    Kind = "hypothesis"
	KindDrivers       Kind = "drivers"
	KindComprehensive Kind = "comprehensive"
)

// Kinds lists every analysis Run accepts
func Kinds() []Kind {
	return []Kind{
		KindSummary, KindDescribe, KindCorrelations, KindRegression, KindPCA, KindDecompose,
		KindForecast, KindTrends, KindClusters, KindHypothesis, KindDrivers, KindComprehensive,
	}
}

// Params carries the inputs of every kind; each kind reads only the fields
// it needs. Zero values select the analyzer defaults.
type Params struct {
	Column      string                  `json:"column"`
	Columns     []string                `json:"columns"`
	Method      stats.CorrelationMethod `json:"method"`
	Threshold   float64                 `json:"threshold"`
	X           string                  `json:"x"`
	Y           string                  `json:"y"`
	Components  int                     `json:"components"`
	DateColumn  string                  `json:"date_column"`
	ValueColumn string                  `json:"value_column"`
	Period      int                     `json:"period"`
	Periods     int                     `json:"periods"`
	K           int                     `json:"k"`
	Test        stats.TestKind          `json:"test"`
	Alpha       float64                 `json:"alpha"`
	Target      string                  `json:"target"`
	Features    []string                `json:"features"`
}

// Run executes the analysis named by kind
func (a *Analyzer) Run(ctx context.Context, kind Kind, ds *dataset.Dataset, p Params) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch kind {
	case KindSummary:
		return a.Summary(ds)
	case KindDescribe:
		return a.Describe(ds, p.Column)
	case KindCorrelations:
		return a.Correlations(ds, p.Columns, p.Method, p.Threshold)
	case KindRegression:
		return a.Regression(ds, p.X, p.Y)
	case KindPCA:
		return a.PCA(ds, p.Columns, p.Components)
	case KindDecompose:
		return a.Decompose(ds, p.DateColumn, p.ValueColumn, p.Period)
	case KindForecast:
		return a.Forecast(ds, p.Column, p.Periods)
	case KindTrends:
		return a.Trend(ds)
	case KindClusters:
		return a.Cluster(ds, p.Columns, p.K)
	case KindHypothesis:
		return a.Test(p.Test, ds, p.Columns, p.Alpha)
	case KindDrivers:
		return a.Drivers(ds, p.Target, p.Features)
	case KindComprehensive:
		return a.Comprehensive(ctx, ds, p.Target)
	default:
		return nil, errors.Unsupported("analysis", string(kind), core.ErrInvalidInput)
	}
}
