package config

import (
	"os"
	"path/filepath"
	"testing"

	"goanalyst/internal"
	"goanalyst/internal/automl"
	"goanalyst/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		FileEnv, "LOG_LEVEL", "PORT", "GIN_MODE", "MAX_UPLOAD_MB", "DATABASE_DRIVER", "DATABASE_URL",
		"ANALYST_SEED", "ANALYST_CV_FOLDS", "ANALYST_MIN_ROWS", "ANALYST_VALIDATION_FRACTION",
		"ANALYST_TRIALS", "ANALYST_IMPUTATION", "ANALYST_ALPHA", "ANALYST_CORRELATION_THRESHOLD",
		"ANALYST_CONCURRENCY", "ANALYST_CACHE_SIZE", "PPROF_ENABLED", "PPROF_PORT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	config, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), config)
	assert.Equal(t, "sqlite", config.Store.Driver)
	assert.Equal(t, automl.DefaultSeed, config.Engine.Seed)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ANALYST_SEED", "7")
	t.Setenv("ANALYST_IMPUTATION", "MEDIAN")
	t.Setenv("ANALYST_CV_FOLDS", "not a number")
	t.Setenv("DATABASE_DRIVER", "PostgreSQL")
	t.Setenv("DATABASE_URL", "postgres://localhost/analyst")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("PPROF_ENABLED", "true")

	config, err := Load()
	require.NoError(t, err)
	assert.Equal(t, int64(7), config.Engine.Seed)
	assert.Equal(t, "median", config.Engine.Imputation)
	assert.Equal(t, automl.DefaultCVFolds, config.Engine.CVFolds, "unparsable values keep the default")
	assert.Equal(t, "postgres", config.Store.Driver)
	assert.Equal(t, "DEBUG", config.LogLevel)
	assert.True(t, config.Profiling.Enabled)
	assert.Equal(t, "6060", config.Profiling.Port)

	cfg := config.Engine.AutoML(internal.NewLogger(internal.LogLevelError))
	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, automl.ImputeMedian, cfg.Imputation)
	assert.Equal(t, config.Engine.Alpha, config.Engine.Analysis(nil).Alpha)
}

func TestLoadFileOverlay(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "analyst.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level = "WARN"

[engine]
seed = 99
trials = 5

[server]
port = "9090"

[coercion]
numeric_threshold = 0.9
`), 0o644))
	t.Setenv(FileEnv, path)
	t.Setenv("PORT", "7070")

	config, err := Load()
	require.NoError(t, err)
	assert.Equal(t, int64(99), config.Engine.Seed)
	assert.Equal(t, 5, config.Engine.Trials)
	assert.Equal(t, automl.DefaultCVFolds, config.Engine.CVFolds, "omitted keys keep defaults")
	assert.Equal(t, "7070", config.Server.Port, "environment wins over the file")
	assert.Equal(t, 0.9, config.Coercion.NumericThreshold)
	assert.Equal(t, "WARN", config.LogLevel)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("ANALYST_VALIDATION_FRACTION", "1.5")
	t.Setenv("DATABASE_DRIVER", "oracle")

	_, err := Load()
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
	assert.Contains(t, err.Error(), "ValidationFraction")
	assert.Contains(t, err.Error(), "Driver")

	clearEnv(t)
	t.Setenv(FileEnv, filepath.Join(t.TempDir(), "missing.toml"))
	_, err = Load()
	assert.Error(t, err)
}
