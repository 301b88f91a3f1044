package redis

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	options "github.com/kart-io/evorag/pkg/options/redis"
)

func TestNew(t *testing.T) {
	mr := miniredis.RunT(t)
	host, port, _ := strings.Cut(mr.Addr(), ":")

	opts := options.NewOptions()
	opts.Host = host
	opts.Port, _ = strconv.Atoi(port)

	c, err := New(context.Background(), opts)
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, "redis", c.Name())
	assert.NoError(t, c.Ping(context.Background()))
	require.NoError(t, c.Client().Set(context.Background(), "k", "v", 0).Err())
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestNew_InvalidOptions(t *testing.T) {
	_, err := New(context.Background(), nil)
	assert.Error(t, err)

	opts := options.NewOptions()
	opts.Host = ""
	_, err = New(context.Background(), opts)
	assert.Error(t, err)
}
