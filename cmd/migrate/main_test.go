package main

import (
	"os"
	"path/filepath"
	"testing"

	"goanalyst/internal"
	"goanalyst/internal/automl"
	"goanalyst/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exportModel(t *testing.T, dir, name, format string, clearID bool) *automl.TrainedModel {
	t.Helper()
	config := testkit.DefaultShoppingConfig()
	config.OrderCount = 80
	orders, err := testkit.NewShoppingDataGenerator(config).GenerateOrders()
	require.NoError(t, err)

	cfg := automl.DefaultConfig()
	cfg.Logger = internal.NewLogger(internal.LogLevelError)
	cfg.Algorithms = []automl.Algorithm{automl.AlgorithmLinear}
	model, err := automl.Train(orders, testkit.ColOrderValue, []string{testkit.ColCartValue}, automl.Regression, cfg)
	require.NoError(t, err)
	if clearID {
		model.ID = ""
	}

	doc, err := automl.Export(model, format)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(doc), 0o644))
	return model
}

func TestFindAndLoadModelFiles(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(nested, 0o755))

	withID := exportModel(t, dir, "a.json", automl.FormatJSON, false)
	exportModel(t, nested, "b.yml", automl.FormatYAML, true)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o644))

	files, err := findModelFiles(dir)
	require.NoError(t, err)
	assert.Len(t, files, 2)

	loaded, err := loadModelFromFile(filepath.Join(dir, "a.json"))
	require.NoError(t, err)
	assert.Equal(t, withID.ID, loaded.ID)

	first, err := loadModelFromFile(filepath.Join(nested, "b.yml"))
	require.NoError(t, err)
	second, err := loadModelFromFile(filepath.Join(nested, "b.yml"))
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, first.ID, second.ID, "derived IDs are stable")

	_, err = loadModelFromFile(filepath.Join(dir, "notes.txt"))
	assert.Error(t, err)
}
