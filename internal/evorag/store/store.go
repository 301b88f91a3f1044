package store

import (
	"context"
	"errors"
	"strings"
)

// ErrEmptyFilter is returned by DeleteByFilter for a filter that would match
// every point.
var ErrEmptyFilter = errors.New("delete requires a non-empty filter")

// Payload 随向量一起存储的块元数据与原文。
type Payload struct {
	Source     string `json:"source"`
	Heading    string `json:"heading"`
	ChunkIndex int    `json:"chunk_index"`
	Page       *int   `json:"page,omitempty"`
	Text       string `json:"text"`
}

// Point 表示一个待写入的向量点。
type Point struct {
	ID      string
	Vector  []float32
	Payload Payload
}

// Hit 表示一条相似度检索结果。
type Hit struct {
	ID      string
	Score   float32
	Payload Payload
}

// Filter 描述按载荷字段的等值过滤条件。
type Filter struct {
	Source string
}

// Empty reports whether the filter matches every point.
func (f Filter) Empty() bool {
	return f.Source == ""
}

// Match reports whether p satisfies the filter.
func (f Filter) Match(p Payload) bool {
	return f.Source == "" || p.Source == f.Source
}

// Expr renders the filter as a Milvus boolean expression.
func (f Filter) Expr() string {
	if f.Source == "" {
		return ""
	}
	return `source == "` + escape(f.Source) + `"`
}

var exprEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func escape(s string) string {
	return exprEscaper.Replace(s)
}

// VectorStore 定义向量存储接口。
type VectorStore interface {
	// EnsureCollection 若集合不存在则创建，已存在视为成功。
	EnsureCollection(ctx context.Context, collection string, dim int) error

	// Upsert 按 ID 覆盖写入。wait 为 true 时写入可见后才返回。
	Upsert(ctx context.Context, collection string, points []Point, wait bool) error

	// Search 向量相似度搜索，返回带载荷的结果。
	Search(ctx context.Context, collection string, vector []float32, limit int) ([]Hit, error)

	// Scroll 按过滤条件读取至多 limit 个点。
	Scroll(ctx context.Context, collection string, filter Filter, limit int) ([]Point, error)

	// DeleteByFilter 删除所有满足过滤条件的点。空过滤返回 ErrEmptyFilter。
	DeleteByFilter(ctx context.Context, collection string, filter Filter) error

	// Count 返回集合中的点数。
	Count(ctx context.Context, collection string) (int64, error)

	// Drop 删除整个集合。
	Drop(ctx context.Context, collection string) error

	// Close 关闭连接。
	Close(ctx context.Context) error
}
