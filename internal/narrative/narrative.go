// Package narrative turns numeric analysis results into plain-language text.
// It never computes statistics itself; callers hand it finished results.
package narrative

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"goanalyst/domain/stats"
)

// ============================================================================
// LABELS
// ============================================================================

// ReadableName turns a column name such as cart_value or pagesViewed into
// "Cart Value" or "Pages Viewed"
func ReadableName(name string) string {
	var words []string
	for _, part := range strings.FieldsFunc(name, func(r rune) bool { return r == '_' || r == '-' || r == ' ' }) {
		start := 0
		runes := []rune(part)
		for i := 1; i < len(runes); i++ {
			if unicode.IsUpper(runes[i]) && unicode.IsLower(runes[i-1]) {
				words = append(words, string(runes[start:i]))
				start = i
			}
		}
		words = append(words, string(runes[start:]))
	}
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// ModelQuality grades an R² value
func ModelQuality(r2 float64) string {
	switch {
	case r2 > 0.8:
		return "excellent"
	case r2 > 0.6:
		return "good"
	case r2 > 0.4:
		return "moderate"
	default:
		return "poor"
	}
}

// Predictability grades how much of a target's variation a model explains
func Predictability(r2 float64) string {
	switch {
	case r2 > 0.7:
		return "high"
	case r2 > 0.4:
		return "moderate"
	default:
		return "low"
	}
}

// Direction words a signed quantity
func Direction(v float64) string {
	switch {
	case v > 0:
		return "positive"
	case v < 0:
		return "negative"
	default:
		return "no"
	}
}

// ============================================================================
// CORRELATION & REGRESSION
// ============================================================================

// CorrelationPair describes one coefficient
func CorrelationPair(p stats.CorrelationPair) string {
	return fmt.Sprintf("%s %s correlation between %s and %s (r=%.3f, n=%d)",
		p.Strength, Direction(p.Coefficient), p.A, p.B, p.Coefficient, p.N)
}

// Correlation summarizes the strong pairs of a matrix
func Correlation(m *stats.CorrelationMatrix) string {
	if m == nil {
		return ""
	}
	if len(m.StrongPairs) == 0 {
		return fmt.Sprintf("No pair of the %d columns reaches |r| >= %.2f; the variables move largely independently.",
			len(m.Columns), m.Threshold)
	}
	top := m.StrongPairs[0]
	msg := fmt.Sprintf("%d strong relationship(s) found among %d columns. The strongest is %s.",
		len(m.StrongPairs), len(m.Columns), CorrelationPair(top))
	if top.Coefficient > 0 {
		msg += fmt.Sprintf(" When %s goes up, %s tends to go up too.", top.A, top.B)
	} else {
		msg += fmt.Sprintf(" When %s goes up, %s tends to go down.", top.A, top.B)
	}
	return msg
}

// Regression explains a fitted line in terms of its slope and fit quality
func Regression(m *stats.RegressionModel) string {
	if m == nil {
		return ""
	}
	return fmt.Sprintf("Each one-unit increase in %s changes %s by %.3f on average (R²=%.3f, %s fit over %d points).",
		m.XColumn, m.YColumn, m.Slope, m.RSquared, ModelQuality(m.RSquared), m.N)
}

// ============================================================================
// PCA & CLUSTERING
// ============================================================================

// PCA reports how concentrated the variance is
func PCA(res *stats.PCAResult) string {
	if res == nil || len(res.ExplainedVariance) == 0 {
		return ""
	}
	needed := len(res.CumulativeVariance)
	for i, c := range res.CumulativeVariance {
		if c >= 80 {
			needed = i + 1
			break
		}
	}
	complexity := "moderate"
	if res.ExplainedVariance[0] < 60 {
		complexity = "high"
	}
	return fmt.Sprintf("The first component explains %.1f%% of the variation; %d of %d components cover 80%%. Data complexity is %s. Most influential column: %s.",
		res.ExplainedVariance[0], needed, len(res.ExplainedVariance), complexity, topKey(res.FeatureImportance))
}

// Clusters describes the groups found by k-means
func Clusters(a *stats.ClusterAssignment) string {
	if a == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "The data naturally forms %d distinct groups.", a.K)
	for _, p := range a.Profiles {
		col, diff := largestDeviation(p.VsOverall)
		if col == "" {
			fmt.Fprintf(&b, " Group %d holds %.1f%% of rows.", p.Cluster+1, p.Percentage)
			continue
		}
		dir := "above"
		if diff < 0 {
			dir = "below"
		}
		fmt.Fprintf(&b, " Group %d holds %.1f%% of rows and sits %s average on %s.", p.Cluster+1, p.Percentage, dir, col)
	}
	if !a.Converged {
		fmt.Fprintf(&b, " Grouping stopped after %d iterations before fully stabilizing.", a.Iterations)
	}
	return b.String()
}

// ============================================================================
// TIME SERIES
// ============================================================================

// Decomposition summarizes trend direction and seasonality
func Decomposition(d *stats.TimeSeriesDecomposition) string {
	if d == nil || len(d.Trend) == 0 {
		return ""
	}
	first, last := d.Trend[0], d.Trend[len(d.Trend)-1]
	var msg string
	switch d.Direction {
	case stats.TrendRising:
		msg = fmt.Sprintf("%s is trending upward, from %.2f to %.2f.", d.ValueColumn, first, last)
	case stats.TrendFalling:
		msg = fmt.Sprintf("%s is trending downward, from %.2f to %.2f.", d.ValueColumn, first, last)
	default:
		msg = fmt.Sprintf("%s shows no overall trend.", d.ValueColumn)
	}
	if d.HasSeasonality {
		peak := 0
		for i, v := range d.SeasonalIndices {
			if v > d.SeasonalIndices[peak] {
				peak = i
			}
		}
		msg += fmt.Sprintf(" A repeating pattern every %d observations was detected, peaking at position %d of the cycle.", d.Period, peak+1)
	} else {
		msg += " No significant seasonal pattern was detected."
	}
	return msg
}

// Trend describes a single-series trend summary
func Trend(column string, t stats.TrendSummary) string {
	msg := fmt.Sprintf("%s shows a %s %s trend (slope %.3f per period, R²=%.3f) with %s volatility.",
		column, t.Strength, t.Direction, t.Slope, t.RSquared, t.Volatility)
	if t.NextForecast != nil {
		msg += fmt.Sprintf(" Next period is projected at %.2f.", *t.NextForecast)
	}
	return msg
}

// Forecast describes a projection and its band
func Forecast(column string, f *stats.Forecast) string {
	if f == nil || len(f.Values) == 0 {
		return ""
	}
	last := len(f.Values) - 1
	return fmt.Sprintf("Over the next %d periods %s is projected to reach %.2f (95%% band %.2f to %.2f); the linear trend explains %.0f%% of past variation.",
		f.Periods, column, f.Values[last], f.Lower[last], f.Upper[last], f.RSquared*100)
}

// ============================================================================
// HYPOTHESIS TESTS
// ============================================================================

// Hypothesis interprets a test outcome for a non-technical reader
func Hypothesis(r *stats.HypothesisTestResult) string {
	if r == nil {
		return ""
	}
	if !r.PValue.Defined {
		return fmt.Sprintf("The %s could not produce a p-value because the data has no variation to test; no conclusion is drawn.", r.Kind)
	}
	p := fmt.Sprintf("p=%.4f", r.PValue.Value)

	switch r.Kind {
	case stats.TestWelchT:
		if len(r.Groups) == 2 {
			if r.RejectNull {
				higher := r.Groups[0]
				if r.Groups[1].Mean > higher.Mean {
					higher = r.Groups[1]
				}
				return fmt.Sprintf("The groups differ significantly (%s); %s has the higher average (%.2f). Effect size d=%.2f.",
					p, higher.Name, higher.Mean, r.EffectSize)
			}
			return fmt.Sprintf("No significant difference between %s and %s (%s).", r.Groups[0].Name, r.Groups[1].Name, p)
		}
	case stats.TestANOVA:
		if r.RejectNull {
			return fmt.Sprintf("At least one of the %d groups has a different average (%s, eta²=%.2f).", len(r.Groups), p, r.EffectSize)
		}
		return fmt.Sprintf("The %d group averages are not significantly different (%s).", len(r.Groups), p)
	case stats.TestChiSquare:
		if r.RejectNull {
			return fmt.Sprintf("%s and %s are associated (%s, Cramér's V=%.2f).", r.Columns[0], r.Columns[1], p, r.EffectSize)
		}
		return fmt.Sprintf("No evidence that %s and %s are related (%s).", r.Columns[0], r.Columns[1], p)
	case stats.TestCorrelation:
		if r.RejectNull {
			return fmt.Sprintf("The %s correlation between %s and %s is statistically significant (r=%.3f, %s).",
				Direction(r.EffectSize), r.Columns[0], r.Columns[1], r.EffectSize, p)
		}
		return fmt.Sprintf("The correlation between %s and %s is not statistically significant (r=%.3f, %s).",
			r.Columns[0], r.Columns[1], r.EffectSize, p)
	case stats.TestNormality:
		if r.RejectNull {
			return fmt.Sprintf("%s is not normally distributed (%s); consider a transformation or rank-based methods.", r.Columns[0], p)
		}
		return fmt.Sprintf("%s is consistent with a normal distribution (%s).", r.Columns[0], p)
	}

	if r.RejectNull {
		return fmt.Sprintf("The result is statistically significant (%s).", p)
	}
	return fmt.Sprintf("The result is not statistically significant (%s).", p)
}

// ============================================================================
// PREDICTIONS
// ============================================================================

// Contribution is one feature's signed push on a prediction
type Contribution struct {
	Feature string
	Value   float64
}

// Prediction explains a single prediction through its largest contributions
func Prediction(target, outcome string, confidence float64, contributions []Contribution) string {
	sorted := make([]Contribution, len(contributions))
	copy(sorted, contributions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return math.Abs(sorted[i].Value) > math.Abs(sorted[j].Value)
	})

	msg := fmt.Sprintf("Predicted %s: %s (confidence %.0f%%).", target, outcome, confidence*100)
	limit := 3
	if len(sorted) < limit {
		limit = len(sorted)
	}
	parts := make([]string, 0, limit)
	for _, c := range sorted[:limit] {
		if c.Value == 0 {
			continue
		}
		verb := "raised"
		if c.Value < 0 {
			verb = "lowered"
		}
		parts = append(parts, fmt.Sprintf("%s %s it", c.Feature, verb))
	}
	if len(parts) > 0 {
		msg += " Main factors: " + strings.Join(parts, "; ") + "."
	}
	return msg
}

// ModelSummary describes a freshly trained model
func ModelSummary(algorithm, problemType, metricName string, metric float64, topFeature string) string {
	msg := fmt.Sprintf("Selected %s for %s with %s %.3f on held-out data.", algorithm, problemType, metricName, metric)
	if topFeature != "" {
		msg += fmt.Sprintf(" The most important input is %s.", topFeature)
	}
	return msg
}

// Drivers names the strongest driver of a target
func Drivers(target, topDriver string, r2 float64) string {
	if topDriver == "" {
		return ""
	}
	return fmt.Sprintf("%s has the highest impact on %s. Together the inputs explain %.0f%% of its variation (%s model, %s predictability).",
		topDriver, target, r2*100, ModelQuality(r2), Predictability(r2))
}

// ============================================================================
// REPORTS
// ============================================================================

// Section is one titled block of findings
type Section struct {
	Heading string
	Body    string
	Bullets []string
}

// Markdown renders sections as a Markdown document
func Markdown(title string, sections []Section) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", title)
	for _, s := range sections {
		fmt.Fprintf(&b, "\n## %s\n\n", s.Heading)
		if s.Body != "" {
			b.WriteString(s.Body)
			b.WriteString("\n")
		}
		if len(s.Bullets) > 0 {
			if s.Body != "" {
				b.WriteString("\n")
			}
			for _, item := range s.Bullets {
				fmt.Fprintf(&b, "- %s\n", item)
			}
		}
	}
	return b.String()
}

func topKey(m map[string]float64) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	best := ""
	for _, k := range keys {
		if best == "" || m[k] > m[best] {
			best = k
		}
	}
	return best
}

func largestDeviation(m map[string]float64) (string, float64) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	best, bestVal := "", 0.0
	for _, k := range keys {
		if math.Abs(m[k]) > math.Abs(bestVal) {
			best, bestVal = k, m[k]
		}
	}
	return best, bestVal
}

// Recommendations suggests next steps from the headline findings of a run.
// Empty inputs are skipped.
func Recommendations(strong []stats.CorrelationPair, target, topDriver string, clusters int) []string {
	var out []string
	if len(strong) > 0 {
		p := strong[0]
		out = append(out, fmt.Sprintf("Investigate the link between %s and %s; it is the strongest relationship in the data.", p.A, p.B))
	}
	if topDriver != "" && target != "" {
		out = append(out, fmt.Sprintf("Focus on %s as it has the highest impact on %s.", topDriver, target))
		out = append(out, "Use the driver model for forecasting and scenario planning.")
	}
	if clusters > 1 {
		out = append(out, fmt.Sprintf("Use the %d natural groupings for segmentation and targeted decisions.", clusters))
	}
	if len(out) == 0 {
		out = append(out, "Collect more rows or numeric columns to surface stronger patterns.")
	}
	return out
}
