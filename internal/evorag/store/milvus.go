package store

import (
	"context"

	"github.com/kart-io/evorag/pkg/component/milvus"
)

// noPage marks a chunk without page information in the int64 page column.
const noPage = -1

var _ VectorStore = (*MilvusStore)(nil)

// MilvusStore 基于 Milvus 的向量存储实现。
type MilvusStore struct {
	client *milvus.Client
}

// NewMilvusStore 创建 Milvus 存储实例。
func NewMilvusStore(client *milvus.Client) *MilvusStore {
	return &MilvusStore{client: client}
}

// EnsureCollection 创建并加载集合。
func (s *MilvusStore) EnsureCollection(ctx context.Context, collection string, dim int) error {
	return s.client.EnsureCollection(ctx, collection, dim)
}

// Upsert 覆盖写入向量点。
func (s *MilvusStore) Upsert(ctx context.Context, collection string, points []Point, wait bool) error {
	rows := make([]milvus.Row, len(points))
	for i, p := range points {
		page := int64(noPage)
		if p.Payload.Page != nil {
			page = int64(*p.Payload.Page)
		}
		rows[i] = milvus.Row{
			ID:         p.ID,
			Vector:     p.Vector,
			Source:     p.Payload.Source,
			Heading:    p.Payload.Heading,
			ChunkIndex: int64(p.Payload.ChunkIndex),
			Page:       page,
			Text:       p.Payload.Text,
		}
	}
	return s.client.Upsert(ctx, collection, rows, wait)
}

// Search 向量相似度搜索。
func (s *MilvusStore) Search(ctx context.Context, collection string, vector []float32, limit int) ([]Hit, error) {
	rows, err := s.client.Search(ctx, collection, vector, limit)
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, len(rows))
	for i, r := range rows {
		hits[i] = Hit{ID: r.ID, Score: r.Score, Payload: payloadFromRow(r)}
	}
	return hits, nil
}

// Scroll 按过滤条件查询。
func (s *MilvusStore) Scroll(ctx context.Context, collection string, filter Filter, limit int) ([]Point, error) {
	rows, err := s.client.Query(ctx, collection, filter.Expr(), limit)
	if err != nil {
		return nil, err
	}

	points := make([]Point, len(rows))
	for i, r := range rows {
		points[i] = Point{ID: r.ID, Payload: payloadFromRow(r)}
	}
	return points, nil
}

// DeleteByFilter 按过滤条件删除。
func (s *MilvusStore) DeleteByFilter(ctx context.Context, collection string, filter Filter) error {
	if filter.Empty() {
		return ErrEmptyFilter
	}
	_, err := s.client.Delete(ctx, collection, filter.Expr())
	return err
}

// Count 返回集合行数。
func (s *MilvusStore) Count(ctx context.Context, collection string) (int64, error) {
	return s.client.Count(ctx, collection)
}

// Drop 删除集合。
func (s *MilvusStore) Drop(ctx context.Context, collection string) error {
	return s.client.DropCollection(ctx, collection)
}

// Close 关闭连接。
func (s *MilvusStore) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}

func payloadFromRow(r milvus.Row) Payload {
	p := Payload{
		Source:     r.Source,
		Heading:    r.Heading,
		ChunkIndex: int(r.ChunkIndex),
		Text:       r.Text,
	}
	if r.Page != noPage {
		page := int(r.Page)
		p.Page = &page
	}
	return p
}
