package analysis

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"goanalyst/domain/core"
	"goanalyst/domain/dataset"
	"goanalyst/domain/stats"
	"goanalyst/internal/narrative"

	"golang.org/x/sync/errgroup"
)

// Report bundles the analyses of a comprehensive run. Analyses whose inputs
// do not fit the dataset are listed in Skipped with the reason instead of
// failing the run.
type Report struct {
	Target          string                         `json:"target,omitempty"`
	Summary         *DataSummary                   `json:"summary"`
	Correlations    *stats.CorrelationMatrix       `json:"correlations,omitempty"`
	Drivers         *DriverAnalysis                `json:"drivers,omitempty"`
	Clusters        *stats.ClusterAssignment       `json:"clusters,omitempty"`
	PCA             *stats.PCAResult               `json:"pca,omitempty"`
	Trends          map[string]stats.TrendSummary  `json:"trends,omitempty"`
	Decomposition   *stats.TimeSeriesDecomposition `json:"decomposition,omitempty"`
	Skipped         map[string]string              `json:"skipped,omitempty"`
	Recommendations []string                       `json:"recommendations"`
	Duration        time.Duration                  `json:"duration"`
}

// Comprehensive runs the summary first, then correlation, drivers (when a
// target is given), clustering, PCA, trends and, for a dataset with a date
// column, a decomposition of the target (or first numeric column), in parallel
func (a *Analyzer) Comprehensive(ctx context.Context, ds *dataset.Dataset, target string) (*Report, error) {
	started := time.Now()
	summary, err := a.Summary(ds)
	if err != nil {
		return nil, err
	}
	report := &Report{Target: target, Summary: summary, Skipped: map[string]string{}}

	var mu sync.Mutex
	skip := func(name string, err error) error {
		if !core.IsInputError(err) {
			return fmt.Errorf("%s: %w", name, err)
		}
		mu.Lock()
		report.Skipped[name] = err.Error()
		mu.Unlock()
		a.logger.Debug("skipping %s: %v", name, err)
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Concurrency)
	run := func(name string, fn func() error) {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(); err != nil {
				return skip(name, err)
			}
			return nil
		})
	}

	run("correlations", func() error {
		m, err := a.Correlations(ds, nil, stats.MethodPearson, 0)
		if err == nil {
			report.Correlations = m
		}
		return err
	})
	if target != "" {
		run("drivers", func() error {
			d, err := a.Drivers(ds, target, nil)
			if err == nil {
				report.Drivers = d
			}
			return err
		})
	}
	run("clusters", func() error {
		c, err := a.Cluster(ds, nil, 0)
		if err == nil {
			report.Clusters = c
		}
		return err
	})
	run("pca", func() error {
		p, err := a.PCA(ds, nil, 0)
		if err == nil {
			report.PCA = p
		}
		return err
	})
	run("trends", func() error {
		t, err := a.Trend(ds)
		if err == nil {
			report.Trends = t
		}
		return err
	})
	if dates := ds.ColumnsWithRole(dataset.RoleTemporal); len(dates) > 0 {
		value := target
		if col, ok := ds.Column(target); !ok || col.Role != dataset.RoleNumeric {
			value = ""
			if numeric := ds.NumericColumns(); len(numeric) > 0 {
				value = numeric[0]
			}
		}
		if value != "" {
			run("decomposition", func() error {
				d, err := a.Decompose(ds, dates[0], value, 0)
				if err == nil {
					report.Decomposition = d
				}
				return err
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var strong []stats.CorrelationPair
	if report.Correlations != nil {
		strong = report.Correlations.StrongPairs
	}
	topDriver, clusters := "", 0
	if report.Drivers != nil {
		topDriver = report.Drivers.TopDriver
	}
	if report.Clusters != nil {
		clusters = report.Clusters.K
	}
	report.Recommendations = narrative.Recommendations(strong, target, topDriver, clusters)
	report.Duration = time.Since(started)
	a.logger.Info("comprehensive analysis of %d rows finished in %s (%d skipped)", summary.Rows, report.Duration, len(report.Skipped))
	return report, nil
}

// Markdown renders the report as a Markdown document
func (r *Report) Markdown(title string) string {
	var sections []narrative.Section

	s := r.Summary
	sections = append(sections, narrative.Section{
		Heading: "Data overview",
		Body: fmt.Sprintf("%d rows and %d columns (%d numeric, %d categorical, %d date). %.1f%% of cells are filled.",
			s.Rows, s.Columns, len(s.NumericColumns), len(s.CategoricalColumns), len(s.TemporalColumns), s.Completeness()*100),
	})
	if r.Correlations != nil {
		var bullets []string
		for _, p := range r.Correlations.TopPairs {
			bullets = append(bullets, narrative.CorrelationPair(p))
		}
		sections = append(sections, narrative.Section{Heading: "Relationships", Body: narrative.Correlation(r.Correlations), Bullets: bullets})
	}
	if r.Drivers != nil {
		sections = append(sections, narrative.Section{
			Heading: "Key drivers of " + narrative.ReadableName(r.Drivers.Target),
			Body:    r.Drivers.Explanation,
			Bullets: importanceBullets(r.Drivers.Importance),
		})
	}
	if r.Clusters != nil {
		sections = append(sections, narrative.Section{Heading: "Natural groups", Body: narrative.Clusters(r.Clusters)})
	}
	if r.PCA != nil {
		sections = append(sections, narrative.Section{Heading: "Dimensions", Body: narrative.PCA(r.PCA)})
	}
	if len(r.Trends) > 0 {
		names := make([]string, 0, len(r.Trends))
		for name := range r.Trends {
			names = append(names, name)
		}
		sort.Strings(names)
		var bullets []string
		for _, name := range names {
			bullets = append(bullets, narrative.Trend(name, r.Trends[name]))
		}
		sections = append(sections, narrative.Section{Heading: "Trends", Bullets: bullets})
	}
	if r.Decomposition != nil {
		sections = append(sections, narrative.Section{Heading: "Over time", Body: r.Decomposition.Explanation})
	}
	sections = append(sections, narrative.Section{Heading: "Recommendations", Bullets: r.Recommendations})
	return narrative.Markdown(title, sections)
}

func importanceBullets(importance map[string]float64) []string {
	names := make([]string, 0, len(importance))
	for name := range importance {
		names = append(names, name)
	}
	sort.SliceStable(names, func(i, j int) bool {
		if importance[names[i]] != importance[names[j]] {
			return importance[names[i]] > importance[names[j]]
		}
		return names[i] < names[j]
	})
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = fmt.Sprintf("%s: %.0f%% of explained impact", narrative.ReadableName(name), importance[name]*100)
	}
	return out
}
