package main

import (
	"fmt"
	"strings"

	"goanalyst/adapters/api"
	"goanalyst/domain/stats"
	"goanalyst/internal/analysis"

	"github.com/spf13/cobra"
)

func newAnalyzeCmd(opts *rootOptions) *cobra.Command {
	var target, title, format string

	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Run every analysis that fits a dataset and print the report",
		Long: `Run the comprehensive analysis of a CSV or XLSX file: summary, correlations,
key drivers of the target, natural groups, dimensions, trends and seasonality.

Example: goanalyst analyze sales.csv --target revenue --format markdown`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.newContainer(cmd, false)
			if err != nil {
				return err
			}
			ds, err := opts.loadDataset(c.Config, args[0])
			if err != nil {
				return err
			}
			report, err := c.Analyzer.Comprehensive(cmd.Context(), ds, target)
			if err != nil {
				return err
			}
			if title == "" {
				title = "Insights for " + args[0]
			}

			out := cmd.OutOrStdout()
			switch strings.ToLower(format) {
			case "json":
				return printJSON(out, report)
			case "html":
				_, err = out.Write(api.RenderHTML(report.Markdown(title)))
				return err
			case "markdown", "md":
				_, err = fmt.Fprint(out, report.Markdown(title))
				return err
			default:
				return fmt.Errorf("unknown format %q (use markdown, html or json)", format)
			}
		},
	}

	cmd.Flags().StringVar(&target, "target", "", "Column whose drivers to explain")
	cmd.Flags().StringVar(&title, "title", "", "Report title")
	cmd.Flags().StringVar(&format, "format", "markdown", "Output format: markdown, html or json")
	return cmd
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	var p analysis.Params
	var method, test string

	kinds := make([]string, 0, len(analysis.Kinds()))
	for _, k := range analysis.Kinds() {
		kinds = append(kinds, string(k))
	}

	cmd := &cobra.Command{
		Use:   "stats [kind] [file]",
		Short: "Run one analysis and print its result as JSON",
		Long: fmt.Sprintf(`Run one analysis on a CSV or XLSX file.

Kinds: %s

Examples:
  goanalyst stats correlations data.csv --method spearman
  goanalyst stats regression data.csv --x ads --y revenue
  goanalyst stats decompose sales.csv --date date --value sales --period 7
  goanalyst stats hypothesis data.csv --test anova --columns revenue,region`, strings.Join(kinds, ", ")),
		Args:      cobra.ExactArgs(2),
		ValidArgs: kinds,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.newContainer(cmd, false)
			if err != nil {
				return err
			}
			ds, err := opts.loadDataset(c.Config, args[1])
			if err != nil {
				return err
			}
			p.Method = stats.CorrelationMethod(method)
			p.Test = stats.TestKind(test)
			result, err := c.Analyzer.Run(cmd.Context(), analysis.Kind(args[0]), ds, p)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	f := cmd.Flags()
	f.StringVar(&p.Column, "column", "", "Column for describe and forecast")
	f.StringSliceVar(&p.Columns, "columns", nil, "Columns to include (default: all numeric)")
	f.StringVar(&method, "method", "pearson", "Correlation method: pearson, spearman or kendall")
	f.Float64Var(&p.Threshold, "threshold", 0, "Minimum |r| for a strong correlation")
	f.StringVar(&p.X, "x", "", "Regression predictor")
	f.StringVar(&p.Y, "y", "", "Regression response")
	f.IntVar(&p.Components, "components", 0, "PCA components to keep (default: all)")
	f.StringVar(&p.DateColumn, "date", "", "Date column for decompose")
	f.StringVar(&p.ValueColumn, "value", "", "Value column for decompose")
	f.IntVar(&p.Period, "period", 0, "Seasonal period (default: detected)")
	f.IntVar(&p.Periods, "periods", 5, "Forecast horizon")
	f.IntVar(&p.K, "k", 0, "Cluster count (default: elbow)")
	f.StringVar(&test, "test", string(stats.TestWelchT), "Hypothesis test: t-test, chi-square, anova, correlation or normality")
	f.Float64Var(&p.Alpha, "alpha", 0, "Significance level")
	f.StringVar(&p.Target, "target", "", "Target for drivers and comprehensive")
	f.StringSliceVar(&p.Features, "features", nil, "Features for drivers (default: all numeric)")
	return cmd
}
