package container

import (
	"context"
	"testing"

	"goanalyst/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainerLifecycle(t *testing.T) {
	cfg := config.Default()
	cfg.LogLevel = "ERROR"
	cfg.Store.DSN = ":memory:"

	c, err := New(cfg)
	require.NoError(t, err)
	assert.NotNil(t, c.Analyzer)
	assert.Nil(t, c.Models, "repositories need a database")

	ctx := context.Background()
	require.NoError(t, c.Open(ctx))
	require.NotNil(t, c.Models)

	records, err := c.Models.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, records)

	require.NoError(t, c.Shutdown(ctx))
}

func TestContainerErrors(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	cfg := config.Default()
	cfg.Store.Driver = "oracle"
	c, err := New(cfg)
	require.NoError(t, err)
	assert.Error(t, c.Open(context.Background()))

	assert.Error(t, c.InitWithDatabase(context.Background(), nil))
}
