package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/evorag/pkg/utils/json"
)

func TestOptions_PasswordRedaction(t *testing.T) {
	o := NewOptions()
	o.Password = "s3cret"

	data, err := json.Marshal(o)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "s3cret")
	assert.Contains(t, string(data), redactedPassword)
	assert.Contains(t, string(data), `"host":"127.0.0.1"`)
	assert.NotContains(t, o.String(), "s3cret")
}

func TestOptions_CompleteFromEnv(t *testing.T) {
	t.Setenv("REDIS_PASSWORD", "from-env")
	o := NewOptions()
	require.NoError(t, o.Complete())
	assert.Equal(t, "from-env", o.Password)
	assert.Equal(t, "127.0.0.1:6379", o.Addr())
}

func TestOptions_Validate(t *testing.T) {
	o := NewOptions()
	assert.Empty(t, o.Validate())
	o.Port = 70000
	assert.Len(t, o.Validate(), 1)
}
