package cliflag

import (
	"bytes"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
)

func TestNamedFlagSets_Order(t *testing.T) {
	var fss NamedFlagSets
	fss.FlagSet("milvus").String("milvus.address", "", "")
	fss.FlagSet("llm").String("llm.provider", "", "")
	fss.FlagSet("milvus").Int("milvus.pool-size", 0, "")

	assert.Equal(t, []string{"milvus", "llm"}, fss.Order)
	assert.NotNil(t, fss.FlagSets["milvus"].Lookup("milvus.pool-size"))

	fs := pflag.NewFlagSet("root", pflag.ContinueOnError)
	fss.AddTo(fs)
	assert.NotNil(t, fs.Lookup("llm.provider"))
	assert.NotNil(t, fs.Lookup("milvus.address"))
}

func TestPrintSections(t *testing.T) {
	var fss NamedFlagSets
	fss.FlagSet("redis").String("redis.host", "127.0.0.1", "Redis host")
	fss.FlagSet("empty")

	var buf bytes.Buffer
	PrintSections(&buf, fss, 0)

	out := buf.String()
	assert.Contains(t, out, "Redis flags:")
	assert.Contains(t, out, "--redis.host")
	assert.NotContains(t, out, "Empty flags:")
}
