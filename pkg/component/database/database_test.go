package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	options "github.com/kart-io/evorag/pkg/options/registry"
)

func TestNew_SQLite(t *testing.T) {
	opts := options.NewOptions()
	opts.DSN = filepath.Join(t.TempDir(), "registry.db")

	c, err := New(context.Background(), opts)
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, "registry-sqlite", c.Name())
	assert.NoError(t, c.Ping(context.Background()))

	var one int
	require.NoError(t, c.DB().Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)
}

func TestNew_InvalidDriver(t *testing.T) {
	opts := options.NewOptions()
	opts.Driver = "oracle"
	_, err := New(context.Background(), opts)
	assert.Error(t, err)
}
