package biz

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveChunkID(t *testing.T) {
	base := DeriveChunkID("guide.md", 0, "Alpha beta gamma delta epsilon.")

	t.Run("相同输入得到相同 ID", func(t *testing.T) {
		assert.Equal(t, base, DeriveChunkID("guide.md", 0, "Alpha beta gamma delta epsilon."))
	})

	t.Run("ID 是合法 UUID", func(t *testing.T) {
		id, err := uuid.Parse(base)
		require.NoError(t, err)
		assert.Equal(t, uuid.Version(5), id.Version())
	})

	tests := []struct {
		name   string
		source string
		index  int
		text   string
	}{
		{name: "来源不同", source: "other.md", index: 0, text: "Alpha beta gamma delta epsilon."},
		{name: "序号不同", source: "guide.md", index: 1, text: "Alpha beta gamma delta epsilon."},
		{name: "内容不同", source: "guide.md", index: 0, text: "Alpha beta gamma delta zeta."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, base, DeriveChunkID(tt.source, tt.index, tt.text))
		})
	}
}

func TestContentHash(t *testing.T) {
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		ContentHash(""))
	assert.Len(t, ContentHash("x"), 64)
}
