package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"goanalyst/domain/core"
	"goanalyst/internal/automl"
	"goanalyst/internal/container"

	"github.com/spf13/cobra"
)

func newProblemTypeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "problem-type [file] [target]",
		Short: "Report whether a target needs classification or regression",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.newContainer(cmd, false)
			if err != nil {
				return err
			}
			ds, err := opts.loadDataset(c.Config, args[0])
			if err != nil {
				return err
			}
			problem, err := automl.DetermineProblemType(ds, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), problem)
			return nil
		},
	}
}

func newTrainCmd(opts *rootOptions) *cobra.Command {
	var target, problemType, outFile string
	var features, algorithms []string
	var seed int64
	var noSave bool

	cmd := &cobra.Command{
		Use:   "train [file]",
		Short: "Train candidate models, keep the best and store it",
		Long: `Train every candidate algorithm that fits the target on a seeded split,
cross-validate the winner and store it in the model store.

Example: goanalyst train orders.csv --target order_value --features pages_viewed,cart_value --out model.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.newContainer(cmd, !noSave)
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			ds, err := opts.loadDataset(c.Config, args[0])
			if err != nil {
				return err
			}
			cfg := c.Config.Engine.AutoML(c.Logger.With("AutoML"))
			if cmd.Flags().Changed("seed") {
				cfg.Seed = seed
			}
			for _, a := range algorithms {
				cfg.Algorithms = append(cfg.Algorithms, automl.Algorithm(a))
			}

			model, err := automl.Train(ds, target, features, automl.ProblemType(problemType), cfg)
			if err != nil {
				return err
			}
			if !noSave {
				if err := c.Models.Save(cmd.Context(), model, ds.Hash()); err != nil {
					return err
				}
			}
			if outFile != "" {
				if err := writeModel(outFile, model); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "model:     %s\n", model.ID)
			fmt.Fprintf(out, "algorithm: %s (%s)\n", model.Algorithm, model.ProblemType)
			fmt.Fprintf(out, "%s:  %.4f (cv %.4f over %d folds)\n", model.SelectionMetric, model.Metrics[model.SelectionMetric], model.CVScore, model.CVFolds)
			for _, w := range model.Warnings {
				fmt.Fprintf(out, "warning:   %s\n", w)
			}
			fmt.Fprintln(out, model.Summary)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&target, "target", "", "Column to predict")
	f.StringSliceVar(&features, "features", nil, "Feature columns (default: every other column)")
	f.StringVar(&problemType, "problem-type", "", "classification or regression (default: detected)")
	f.StringSliceVar(&algorithms, "algorithms", nil, "Restrict candidates: linear, logistic, decision_tree, knn")
	f.Int64Var(&seed, "seed", automl.DefaultSeed, "Random seed for deterministic operations")
	f.BoolVar(&noSave, "no-save", false, "Do not store the model")
	f.StringVar(&outFile, "out", "", "Also export the model to a .json or .yaml file")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}

func newPredictCmd(opts *rootOptions) *cobra.Command {
	var modelFile, inputFile string
	var values map[string]string

	cmd := &cobra.Command{
		Use:   "predict [model-id]",
		Short: "Predict with a stored or exported model",
		Long: `Predict one row given with --set, or every row of --input.

Examples:
  goanalyst predict 0190f1c2-... --set pages_viewed=6 --set cart_value=80
  goanalyst predict --model-file model.yaml --input new_orders.csv`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			needStore := modelFile == ""
			c, err := opts.newContainer(cmd, needStore)
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			model, err := resolveModel(cmd, c, args, modelFile)
			if err != nil {
				return err
			}

			if inputFile == "" {
				row := make(map[string]interface{}, len(values))
				for k, v := range values {
					row[k] = v
				}
				result, err := automl.Predict(model, row)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), result)
			}

			ds, err := opts.loadDataset(c.Config, inputFile)
			if err != nil {
				return err
			}
			results := make([]*automl.PredictionResult, 0, ds.Len())
			for _, rec := range ds.Records() {
				row := make(map[string]interface{}, len(rec))
				for k, v := range rec {
					row[k] = v
				}
				result, err := automl.Predict(model, row)
				if err != nil {
					return err
				}
				results = append(results, result)
			}
			return printJSON(cmd.OutOrStdout(), results)
		},
	}

	cmd.Flags().StringVar(&modelFile, "model-file", "", "Exported model (.json or .yaml) instead of a stored ID")
	cmd.Flags().StringVar(&inputFile, "input", "", "CSV or XLSX file of rows to predict")
	cmd.Flags().StringToStringVar(&values, "set", nil, "Feature value as name=value (repeatable)")
	return cmd
}

func newModelsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Manage stored models",
	}

	var limit, offset int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored models, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.newContainer(cmd, true)
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			records, err := c.Models.List(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTARGET\tALGORITHM\tMETRIC\tSCORE\tCREATED")
			for _, r := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.4f\t%s\n", r.ID, r.Target, r.Algorithm, r.SelectionMetric, r.Score, r.CreatedAt.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}
	listCmd.Flags().IntVar(&limit, "limit", 50, "Maximum models to list")
	listCmd.Flags().IntVar(&offset, "offset", 0, "Models to skip")

	var format, outFile string
	exportCmd := &cobra.Command{
		Use:   "export [model-id]",
		Short: "Print or write a stored model as JSON or YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.newContainer(cmd, true)
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			model, err := resolveModel(cmd, c, args, "")
			if err != nil {
				return err
			}
			if outFile != "" {
				return writeModel(outFile, model)
			}
			doc, err := automl.Export(model, format)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), doc)
			return err
		},
	}
	exportCmd.Flags().StringVar(&format, "format", automl.FormatJSON, "json or yaml")
	exportCmd.Flags().StringVar(&outFile, "out", "", "Write to a file; the extension picks the format")

	importCmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Store a model exported as .json or .yaml",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.newContainer(cmd, true)
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			model, err := readModel(args[0])
			if err != nil {
				return err
			}
			if model.ID == "" {
				model.ID = core.NewModelID()
			}
			if err := c.Models.Save(cmd.Context(), model, ""); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), model.ID)
			return nil
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete [model-id]",
		Short: "Delete a stored model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.newContainer(cmd, true)
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			id, err := core.ParseModelID(args[0])
			if err != nil {
				return err
			}
			return c.Models.Delete(cmd.Context(), id)
		},
	}

	cmd.AddCommand(listCmd, exportCmd, importCmd, deleteCmd)
	return cmd
}

// resolveModel loads a model from an export file or, by ID, from the store
func resolveModel(cmd *cobra.Command, c *container.Container, args []string, modelFile string) (*automl.TrainedModel, error) {
	if modelFile != "" {
		return readModel(modelFile)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("give a model ID or --model-file")
	}
	id, err := core.ParseModelID(args[0])
	if err != nil {
		return nil, err
	}
	return c.Models.Get(cmd.Context(), id)
}

func formatForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return automl.FormatYAML
	default:
		return automl.FormatJSON
	}
}

func writeModel(path string, model *automl.TrainedModel) error {
	doc, err := automl.Export(model, formatForPath(path))
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(doc), 0o644)
}

func readModel(path string) (*automl.TrainedModel, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}
	return automl.Import(string(raw), formatForPath(path))
}
