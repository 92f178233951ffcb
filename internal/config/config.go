package config

import (
	stderrors "errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"goanalyst/adapters/coercer"
	"goanalyst/internal"
	"goanalyst/internal/analysis"
	"goanalyst/internal/automl"
	"goanalyst/internal/errors"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

// FileEnv names the environment variable holding an optional TOML overlay
const FileEnv = "ANALYST_CONFIG_FILE"

// Config represents the complete application configuration
type Config struct {
	Engine    EngineConfig           `toml:"engine"`
	Server    ServerConfig           `toml:"server"`
	Store     StoreConfig            `toml:"store"`
	Coercion  coercer.CoercionConfig `toml:"coercion"`
	Profiling ProfilingConfig        `toml:"profiling"`
	LogLevel  string                 `toml:"log_level" validate:"omitempty,oneof=ERROR WARN INFO DEBUG TRACE"`
}

// EngineConfig holds the analysis and training defaults
type EngineConfig struct {
	Seed                 int64   `toml:"seed"`
	CVFolds              int     `toml:"cv_folds" validate:"min=2,max=20"`
	MinRows              int     `toml:"min_rows" validate:"min=2"`
	ValidationFraction   float64 `toml:"validation_fraction" validate:"gt=0,lt=1"`
	Trials               int     `toml:"trials" validate:"min=1,max=50"`
	Imputation           string  `toml:"imputation" validate:"oneof=mean median"`
	Alpha                float64 `toml:"alpha" validate:"gt=0,lt=1"`
	CorrelationThreshold float64 `toml:"correlation_threshold" validate:"gte=0,lte=1"`
	Concurrency          int     `toml:"concurrency" validate:"min=1,max=64"`
	CacheSize            int     `toml:"cache_size" validate:"min=1"`
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port        string `toml:"port" validate:"required,numeric"`
	GinMode     string `toml:"gin_mode" validate:"oneof=debug release test"`
	MaxUploadMB int64  `toml:"max_upload_mb" validate:"min=1"`
}

// StoreConfig holds the model store connection
type StoreConfig struct {
	Driver string `toml:"driver" validate:"oneof=sqlite postgres"`
	DSN    string `toml:"dsn" validate:"required"`
}

// ProfilingConfig holds performance profiling settings
type ProfilingConfig struct {
	Port    string `toml:"port" validate:"omitempty,numeric"`
	Enabled bool   `toml:"enabled"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	automlDefaults := automl.DefaultConfig()
	analysisDefaults := analysis.DefaultOptions()
	return &Config{
		Engine: EngineConfig{
			Seed:                 automlDefaults.Seed,
			CVFolds:              automlDefaults.CVFolds,
			MinRows:              automlDefaults.MinRows,
			ValidationFraction:   automlDefaults.ValidationFraction,
			Trials:               automlDefaults.Trials,
			Imputation:           string(automlDefaults.Imputation),
			Alpha:                analysisDefaults.Alpha,
			CorrelationThreshold: analysisDefaults.CorrelationThreshold,
			Concurrency:          analysisDefaults.Concurrency,
			CacheSize:            analysisDefaults.CacheSize,
		},
		Server: ServerConfig{
			Port:        "8080",
			GinMode:     "debug",
			MaxUploadMB: 32,
		},
		Store: StoreConfig{
			Driver: "sqlite",
			DSN:    "goanalyst.db",
		},
		Coercion: coercer.DefaultCoercionConfig(),
		Profiling: ProfilingConfig{
			Port: "6060",
		},
	}
}

// Load builds the configuration from defaults, the optional TOML file named
// by ANALYST_CONFIG_FILE and environment variables, in that order, and
// validates the result
func Load() (*Config, error) {
	config := Default()

	if path := os.Getenv(FileEnv); path != "" {
		if err := loadFile(path, config); err != nil {
			return nil, errors.Wrap(err, "failed to load configuration file")
		}
	}

	loadEngineConfig(&config.Engine)
	loadServerConfig(&config.Server)
	loadStoreConfig(&config.Store)
	loadProfilingConfig(&config.Profiling)
	config.LogLevel = strings.ToUpper(getEnvOrDefault("LOG_LEVEL", config.LogLevel))

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// loadFile overlays a TOML file onto config; keys the file omits keep their
// current values
func loadFile(path string, config *Config) error {
	if _, err := os.Stat(path); err != nil {
		return errors.ConfigInvalid(fmt.Sprintf("config file %s: %v", path, err))
	}
	meta, err := toml.DecodeFile(path, config)
	if err != nil {
		return errors.ConfigInvalid(fmt.Sprintf("failed to decode %s: %v", path, err))
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		internal.DefaultLogger.Warn("ignoring unknown config keys in %s: %v", path, undecoded)
	}
	return nil
}

func loadEngineConfig(engine *EngineConfig) {
	engine.Seed = getEnvInt64OrDefault("ANALYST_SEED", engine.Seed)
	engine.CVFolds = getEnvIntOrDefault("ANALYST_CV_FOLDS", engine.CVFolds)
	engine.MinRows = getEnvIntOrDefault("ANALYST_MIN_ROWS", engine.MinRows)
	engine.ValidationFraction = getEnvFloatOrDefault("ANALYST_VALIDATION_FRACTION", engine.ValidationFraction)
	engine.Trials = getEnvIntOrDefault("ANALYST_TRIALS", engine.Trials)
	engine.Imputation = strings.ToLower(getEnvOrDefault("ANALYST_IMPUTATION", engine.Imputation))
	engine.Alpha = getEnvFloatOrDefault("ANALYST_ALPHA", engine.Alpha)
	engine.CorrelationThreshold = getEnvFloatOrDefault("ANALYST_CORRELATION_THRESHOLD", engine.CorrelationThreshold)
	engine.Concurrency = getEnvIntOrDefault("ANALYST_CONCURRENCY", engine.Concurrency)
	engine.CacheSize = getEnvIntOrDefault("ANALYST_CACHE_SIZE", engine.CacheSize)
}

func loadServerConfig(server *ServerConfig) {
	server.Port = getEnvOrDefault("PORT", server.Port)
	server.GinMode = getEnvOrDefault("GIN_MODE", server.GinMode)
	server.MaxUploadMB = getEnvInt64OrDefault("MAX_UPLOAD_MB", server.MaxUploadMB)
}

func loadStoreConfig(store *StoreConfig) {
	store.Driver = strings.ToLower(getEnvOrDefault("DATABASE_DRIVER", store.Driver))
	store.DSN = getEnvOrDefault("DATABASE_URL", store.DSN)
	if store.Driver == "postgresql" {
		store.Driver = "postgres"
	}
}

func loadProfilingConfig(profiling *ProfilingConfig) {
	profiling.Port = getEnvOrDefault("PPROF_PORT", profiling.Port)
	profiling.Enabled = getEnvBoolOrDefault("PPROF_ENABLED", profiling.Enabled)
}

var validate = validator.New()

// Validate checks every section against its validate tags
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrors validator.ValidationErrors
		if stderrors.As(err, &fieldErrors) {
			problems := make([]string, 0, len(fieldErrors))
			for _, fe := range fieldErrors {
				problems = append(problems, fmt.Sprintf("%s fails %q", fe.Namespace(), fe.Tag()))
			}
			return errors.ConfigInvalid("invalid configuration: " + strings.Join(problems, "; "))
		}
		return errors.ConfigInvalid("invalid configuration: " + err.Error())
	}
	return nil
}

// AutoML returns the training configuration for these engine settings
func (e EngineConfig) AutoML(logger *internal.Logger) automl.Config {
	cfg := automl.DefaultConfig()
	cfg.Seed = e.Seed
	cfg.CVFolds = e.CVFolds
	cfg.MinRows = e.MinRows
	cfg.ValidationFraction = e.ValidationFraction
	cfg.Trials = e.Trials
	cfg.Imputation = automl.Imputation(e.Imputation)
	cfg.Logger = logger
	return cfg
}

// Analysis returns the analyzer options for these engine settings
func (e EngineConfig) Analysis(logger *internal.Logger) analysis.Options {
	opts := analysis.DefaultOptions()
	opts.Seed = e.Seed
	opts.Alpha = e.Alpha
	opts.CorrelationThreshold = e.CorrelationThreshold
	opts.Concurrency = e.Concurrency
	opts.CacheSize = e.CacheSize
	opts.Logger = logger
	return opts
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
