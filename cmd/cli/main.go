package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"goanalyst/adapters/excel"
	"goanalyst/domain/dataset"
	"goanalyst/internal/config"
	"goanalyst/internal/container"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// rootOptions are the persistent flags shared by every command
type rootOptions struct {
	configFile string
	dbDriver   string
	dbDSN      string
	logLevel   string
	sheet      string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:           "goanalyst",
		Short:         "Statistical analysis and AutoML for tabular data",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "TOML config file (overrides "+config.FileEnv+")")
	flags.StringVar(&opts.dbDriver, "db-driver", "", "Model store driver: sqlite or postgres")
	flags.StringVar(&opts.dbDSN, "db", "", "Model store DSN (file path for sqlite)")
	flags.StringVar(&opts.logLevel, "log-level", "", "ERROR, WARN, INFO, DEBUG or TRACE")
	flags.StringVar(&opts.sheet, "sheet", "", "Sheet to read from XLSX files (default: first)")

	rootCmd.AddCommand(
		newAnalyzeCmd(opts),
		newStatsCmd(opts),
		newProblemTypeCmd(opts),
		newTrainCmd(opts),
		newPredictCmd(opts),
		newModelsCmd(opts),
		newGenerateCmd(),
		newServeCmd(opts),
		newMigrateCmd(opts),
	)
	return rootCmd
}

// loadConfig reads .env, the config file and the flag overrides
func (o *rootOptions) loadConfig() (*config.Config, error) {
	// a missing .env is normal outside development
	_ = godotenv.Load()

	if o.configFile != "" {
		if err := os.Setenv(config.FileEnv, o.configFile); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if o.dbDriver != "" {
		cfg.Store.Driver = o.dbDriver
	}
	if o.dbDSN != "" {
		cfg.Store.DSN = o.dbDSN
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newContainer builds the dependencies; withStore also opens the model store
func (o *rootOptions) newContainer(cmd *cobra.Command, withStore bool) (*container.Container, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	c, err := container.New(cfg)
	if err != nil {
		return nil, err
	}
	if withStore {
		if err := c.Open(cmd.Context()); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// loadDataset reads a CSV or XLSX file with the configured coercion rules
func (o *rootOptions) loadDataset(cfg *config.Config, path string) (*dataset.Dataset, error) {
	readerConfig := excel.DefaultExcelConfig()
	readerConfig.FilePath = path
	readerConfig.Sheet = o.sheet
	readerConfig.CoercionConfig = cfg.Coercion
	return excel.NewDataReader(readerConfig).Load()
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
