package milvusopts

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(o *Options)
		wantErr string
	}{
		{name: "默认配置", mutate: func(*Options) {}},
		{name: "缺少地址", mutate: func(o *Options) { o.Address = "" }, wantErr: "address is required"},
		{name: "M 过小", mutate: func(o *Options) { o.HNSWM = 1 }, wantErr: "hnsw-m"},
		{name: "search-ef 为零", mutate: func(o *Options) { o.SearchEf = 0 }, wantErr: "search-ef"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOptions()
			tt.mutate(o)
			errs := o.Validate()
			if tt.wantErr == "" {
				assert.Empty(t, errs)
				return
			}
			if assert.Len(t, errs, 1) {
				assert.Contains(t, errs[0].Error(), tt.wantErr)
			}
		})
	}
}

func TestOptions_AddFlags(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	o := NewOptions()
	o.AddFlags(fs)

	require.NoError(t, fs.Parse([]string{"--milvus.address", "milvus:19530", "--milvus.search-ef", "128"}))
	assert.Equal(t, "milvus:19530", o.Address)
	assert.Equal(t, 128, o.SearchEf)
}
