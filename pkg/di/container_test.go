package di

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewContainer(t *testing.T) {
	c := NewContainer()
	require.NotNil(t, c.GetCatalogFactory())
	require.NotNil(t, c.GetServerFactory())
	require.NotNil(t, c.GetLoggerFactory())

	cat, err := c.GetCatalogFactory().OpenCatalog(filepath.Join(t.TempDir(), "catalog"), nil)
	require.NoError(t, err)
	entries, err := cat.Networks()
	require.NoError(t, err)
	assert.Empty(t, entries)
	require.NoError(t, cat.Close())

	logger, err := c.GetLoggerFactory()("warn")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.InfoLevel))
}

func TestContainer_Overrides(t *testing.T) {
	c := NewContainer()
	nop := zap.NewNop()
	c.SetLoggerFactory(func(string) (*zap.Logger, error) { return nop, nil })

	logger, err := c.GetLoggerFactory()("anything")
	require.NoError(t, err)
	assert.Same(t, nop, logger)
}
