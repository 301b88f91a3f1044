package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/evorag/pkg/app/cliflag"
)

type demoOptions struct {
	Collection string `mapstructure:"collection"`
	Milvus     struct {
		Address string `mapstructure:"address"`
	} `mapstructure:"milvus"`

	completed bool
	failWith  error
}

func (o *demoOptions) Flags() (fss cliflag.NamedFlagSets) {
	fs := fss.FlagSet("rag")
	fs.StringVar(&o.Collection, "collection", "my_rag_documents_v2", "Collection name")
	fs.StringVar(&o.Milvus.Address, "milvus.address", "localhost:19530", "Milvus address")
	return fss
}

func (o *demoOptions) Complete() error {
	o.completed = true
	return nil
}

func (o *demoOptions) Validate() error { return o.failWith }

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "demo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestApp_ConfigFileAndFlagPrecedence(t *testing.T) {
	cfg := writeConfig(t, "collection: from_file\nmilvus:\n  address: file:19530\n")
	opts := &demoOptions{}
	var ran bool

	a := NewApp(
		WithName("demo"),
		WithOptions(opts),
		WithNoVersion(),
		WithEnvFiles(),
		WithRunFunc(func() error {
			ran = true
			return nil
		}),
	)
	a.Command().SetArgs([]string{"-c", cfg, "--milvus.address", "flag:19530"})

	require.NoError(t, a.Command().Execute())
	assert.True(t, ran)
	assert.True(t, opts.completed)
	assert.Equal(t, "from_file", opts.Collection)
	assert.Equal(t, "flag:19530", opts.Milvus.Address)
}

func TestApp_EnvOverridesFile(t *testing.T) {
	cfg := writeConfig(t, "collection: from_file\n")
	t.Setenv("DEMO_MILVUS_ADDRESS", "env:19530")
	t.Setenv("COLLECTION_NAME", "expanded")
	cfgExpanded := writeConfig(t, "collection: ${COLLECTION_NAME}\n")

	opts := &demoOptions{}
	a := NewApp(WithName("demo"), WithOptions(opts), WithNoVersion(), WithEnvFiles())
	a.Command().SetArgs([]string{"-c", cfg})
	require.NoError(t, a.Command().Execute())
	assert.Equal(t, "env:19530", opts.Milvus.Address)
	assert.Equal(t, "from_file", opts.Collection)

	opts = &demoOptions{}
	a = NewApp(WithName("demo"), WithOptions(opts), WithNoVersion(), WithEnvFiles())
	a.Command().SetArgs([]string{"-c", cfgExpanded})
	require.NoError(t, a.Command().Execute())
	assert.Equal(t, "expanded", opts.Collection)
}

func TestApp_DotEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("DEMO_COLLECTION=dotenv\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("DEMO_COLLECTION") })

	opts := &demoOptions{}
	a := NewApp(WithName("demo"), WithOptions(opts), WithNoVersion(), WithEnvFiles(envFile))
	a.Command().SetArgs([]string{"-c", writeConfig(t, "milvus:\n  address: x:1\n")})

	require.NoError(t, a.Command().Execute())
	assert.Equal(t, "dotenv", opts.Collection)
}

func TestApp_ConfigNameSharesEnvPrefix(t *testing.T) {
	t.Setenv("SHARED_COLLECTION", "shared")
	t.Setenv("DEMO_CTL_COLLECTION", "ignored")

	opts := &demoOptions{}
	a := NewApp(
		WithName("demo-ctl"),
		WithConfigName("shared"),
		WithOptions(opts),
		WithNoVersion(),
		WithEnvFiles(),
	)
	a.Command().SetArgs([]string{"-c", writeConfig(t, "milvus:\n  address: x:1\n")})

	require.NoError(t, a.Command().Execute())
	assert.Equal(t, "shared", opts.Collection)
}

func TestApp_ValidateErrorStopsRun(t *testing.T) {
	opts := &demoOptions{failWith: errors.New("bad options")}
	var ran bool
	a := NewApp(
		WithName("demo"),
		WithOptions(opts),
		WithNoVersion(),
		WithEnvFiles(),
		WithSilence(),
		WithRunFunc(func() error {
			ran = true
			return nil
		}),
	)
	a.Command().SetArgs([]string{"-c", writeConfig(t, "{}\n")})

	err := a.Command().Execute()
	require.Error(t, err)
	assert.False(t, ran)
}

func TestApp_SubcommandsReceivePreparedOptions(t *testing.T) {
	opts := &demoOptions{}
	var seen string
	sub := &cobra.Command{
		Use: "show",
		RunE: func(*cobra.Command, []string) error {
			seen = opts.Milvus.Address
			return nil
		},
	}

	a := NewApp(WithName("demo"), WithOptions(opts), WithNoVersion(), WithEnvFiles(), WithCommands(sub))
	a.Command().SetArgs([]string{"show", "-c", writeConfig(t, "{}\n"), "--milvus.address", "sub:1"})

	require.NoError(t, a.Command().Execute())
	assert.True(t, opts.completed)
	assert.Equal(t, "sub:1", seen)
}
