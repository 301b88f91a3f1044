package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/evorag/internal/model"
	"github.com/kart-io/evorag/pkg/component/database"
	errno "github.com/kart-io/evorag/pkg/errors"
	options "github.com/kart-io/evorag/pkg/options/registry"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	opts := options.NewOptions()
	opts.DSN = ":memory:"
	c, err := database.New(context.Background(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	s := New(c.DB())
	require.NoError(t, s.AutoMigrate(context.Background()))
	return s
}

func TestStore_SaveGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Save(ctx, &model.Document{
		Source:     "a.md",
		ChunkCount: 2,
		ChunkIDs:   []string{"id-1", "id-2"},
	}))

	doc, err := s.Get(ctx, "a.md")
	require.NoError(t, err)
	assert.Equal(t, 2, doc.ChunkCount)
	assert.Equal(t, []string{"id-1", "id-2"}, doc.ChunkIDs)

	t.Run("同一来源覆盖写入", func(t *testing.T) {
		require.NoError(t, s.Save(ctx, &model.Document{
			Source:     "a.md",
			ChunkCount: 1,
			ChunkIDs:   []string{"id-3"},
		}))

		doc, err := s.Get(ctx, "a.md")
		require.NoError(t, err)
		assert.Equal(t, 1, doc.ChunkCount)
		assert.Equal(t, []string{"id-3"}, doc.ChunkIDs)

		docs, err := s.List(ctx)
		require.NoError(t, err)
		assert.Len(t, docs, 1)
	})
}

func TestStore_GetMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(context.Background(), "missing.md")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errno.ErrNotFound))
}

func TestStore_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, src := range []string{"b.md", "a.md", "c.md"} {
		require.NoError(t, s.Save(ctx, &model.Document{Source: src}))
	}

	docs, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "a.md", docs[0].Source)

	require.NoError(t, s.Delete(ctx, "b.md"))
	require.NoError(t, s.Delete(ctx, "b.md"))

	docs, err = s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}
