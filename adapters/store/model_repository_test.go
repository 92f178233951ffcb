package store

import (
	"context"
	"testing"
	"time"

	"goanalyst/domain/core"
	"goanalyst/internal"
	"goanalyst/internal/automl"
	"goanalyst/internal/migration"
	"goanalyst/internal/testkit"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, "sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migration.NewRunner().Run(ctx, db))
	return db
}

func trainedModel(t *testing.T, seed int64) (*automl.TrainedModel, core.DatasetHash) {
	t.Helper()
	config := testkit.DefaultShoppingConfig()
	config.OrderCount = 120
	config.Seed = seed
	orders, err := testkit.NewShoppingDataGenerator(config).GenerateOrders()
	require.NoError(t, err)

	cfg := automl.DefaultConfig()
	cfg.Logger = internal.NewLogger(internal.LogLevelError)
	cfg.Algorithms = []automl.Algorithm{automl.AlgorithmLinear}
	model, err := automl.Train(orders, testkit.ColOrderValue,
		[]string{testkit.ColPagesViewed, testkit.ColCartValue, testkit.ColTenureDays}, automl.Regression, cfg)
	require.NoError(t, err)
	return model, orders.Hash()
}

func TestDriverName(t *testing.T) {
	for in, want := range map[string]string{"postgresql": DriverPostgres, "pq": DriverPostgres, "SQLite3": DriverSQLite, "": DriverSQLite} {
		got, err := DriverName(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := DriverName("oracle")
	assert.Error(t, err)

	_, err = Open(context.Background(), "sqlite", " ")
	assert.Error(t, err)
}

func TestMigrationIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	runner := migration.NewRunner()
	require.NoError(t, runner.Run(context.Background(), db))

	applied, err := runner.Applied(context.Background(), db)
	require.NoError(t, err)
	assert.True(t, applied)
}

func TestSaveAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewModelRepository(openTestDB(t))
	model, hash := trainedModel(t, 1)

	require.NoError(t, repo.Save(ctx, model, hash))
	loaded, err := repo.Get(ctx, model.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ID, loaded.ID)
	assert.Equal(t, model.Features, loaded.Features)
	assert.Equal(t, model.Params, loaded.Params)

	input := map[string]interface{}{
		testkit.ColPagesViewed: 6.0,
		testkit.ColCartValue:   80.0,
		testkit.ColTenureDays:  200.0,
	}
	want, err := automl.Predict(model, input)
	require.NoError(t, err)
	got, err := automl.Predict(loaded, input)
	require.NoError(t, err)
	assert.InDelta(t, want.Value, got.Value, 1e-9)

	// saving again replaces the row
	require.NoError(t, repo.Save(ctx, model, hash))
	records, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestGetUnknownModel(t *testing.T) {
	repo := NewModelRepository(openTestDB(t))
	_, err := repo.Get(context.Background(), core.NewModelID())
	assert.ErrorIs(t, err, core.ErrModelNotFound)
	assert.ErrorIs(t, err, core.ErrNotFound)

	err = repo.Delete(context.Background(), core.NewModelID())
	assert.ErrorIs(t, err, core.ErrModelNotFound)

	err = repo.Save(context.Background(), &automl.TrainedModel{}, "")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestListAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewModelRepository(openTestDB(t))

	first, hash := trainedModel(t, 1)
	first.CreatedAt = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	second, _ := trainedModel(t, 2)
	second.CreatedAt = first.CreatedAt.Add(time.Hour)
	require.NoError(t, repo.Save(ctx, first, hash))
	require.NoError(t, repo.Save(ctx, second, hash))

	records, err := repo.List(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, second.ID, records[0].ID, "newest first")
	assert.Equal(t, first.CreatedAt, records[1].CreatedAt)
	assert.Equal(t, testkit.ColOrderValue, records[1].Target)
	assert.Equal(t, string(automl.AlgorithmLinear), records[1].Algorithm)
	assert.Equal(t, hash, records[1].DatasetHash)
	assert.Equal(t, first.Metrics[first.SelectionMetric], records[1].Score)

	page, err := repo.List(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, first.ID, page[0].ID)

	require.NoError(t, repo.Delete(ctx, first.ID))
	records, err = repo.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
