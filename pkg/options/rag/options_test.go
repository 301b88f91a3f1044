package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(o *Options)
		wantErr string
	}{
		{name: "默认配置", mutate: func(*Options) {}},
		{name: "空集合名", mutate: func(o *Options) { o.Collection = "" }, wantErr: "collection is required"},
		{name: "上限小于下限", mutate: func(o *Options) { o.MaxChunkWords = 3 }, wantErr: "max-chunk-words"},
		{name: "top-k 为零", mutate: func(o *Options) { o.TopK = 0 }, wantErr: "top-k"},
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
