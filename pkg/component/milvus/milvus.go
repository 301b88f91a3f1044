// Package milvus wraps the Milvus v2 SDK client for EvoRAG's chunk collection.
package milvus

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"

	"github.com/kart-io/evorag/pkg/component"
	milvusopts "github.com/kart-io/evorag/pkg/options/milvus"
)

// Field names shared by the schema and every read/write.
const (
	FieldID         = "id"
	FieldVector     = "embedding"
	FieldSource     = "source"
	FieldHeading    = "heading"
	FieldChunkIndex = "chunk_index"
	FieldPage       = "page"
	FieldText       = "text"
)

// PayloadFields are returned with every search and query.
var PayloadFields = []string{FieldID, FieldSource, FieldHeading, FieldChunkIndex, FieldPage, FieldText}

// Client wraps the Milvus SDK client.
type Client struct {
	client *milvusclient.Client
	opts   *milvusopts.Options
}

var _ component.Checker = (*Client)(nil)

// New creates a new Milvus client.
func New(ctx context.Context, opts *milvusopts.Options) (*Client, error) {
	if opts == nil {
		return nil, fmt.Errorf("milvus options is nil")
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	c, err := milvusclient.New(ctx, &milvusclient.ClientConfig{
		Address:  opts.Address,
		Username: opts.Username,
		Password: opts.Password,
		DBName:   opts.Database,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to milvus at %s: %w", opts.Address, err)
	}

	return &Client{client: c, opts: opts}, nil
}

// Close closes the Milvus client connection.
func (c *Client) Close(ctx context.Context) error {
	return c.client.Close(ctx)
}

// Name implements component.Checker.
func (c *Client) Name() string {
	return "milvus"
}

// Ping implements component.Checker.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.client.ListCollections(ctx, milvusclient.NewListCollectionOption())
	return err
}

func isAlreadyExists(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "already exist")
}

// EnsureCollection creates the chunk collection if it does not exist.
// A concurrent creator winning the race is treated as success.
func (c *Client) EnsureCollection(ctx context.Context, name string, dim int) error {
	exists, err := c.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(name))
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}
	if !exists {
		if err := c.createCollection(ctx, name, dim); err != nil {
			if !isAlreadyExists(err) {
				return err
			}
		}
	}

	loadTask, err := c.client.LoadCollection(ctx, milvusclient.NewLoadCollectionOption(name))
	if err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}
	if err := loadTask.Await(ctx); err != nil {
		return fmt.Errorf("failed to wait for collection loading: %w", err)
	}
	return nil
}

func (c *Client) createCollection(ctx context.Context, name string, dim int) error {
	schema := entity.NewSchema().
		WithName(name).
		WithDescription("EvoRAG document chunks").
		WithAutoID(false).
		WithField(entity.NewField().
			WithName(FieldID).
			WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(64).
			WithIsPrimaryKey(true)).
		WithField(entity.NewField().
			WithName(FieldVector).
			WithDataType(entity.FieldTypeFloatVector).
			WithDim(int64(dim))).
		WithField(entity.NewField().WithName(FieldSource).WithDataType(entity.FieldTypeVarChar).WithMaxLength(1024)).
		WithField(entity.NewField().WithName(FieldHeading).WithDataType(entity.FieldTypeVarChar).WithMaxLength(1024)).
		WithField(entity.NewField().WithName(FieldChunkIndex).WithDataType(entity.FieldTypeInt64)).
		WithField(entity.NewField().WithName(FieldPage).WithDataType(entity.FieldTypeInt64)).
		WithField(entity.NewField().WithName(FieldText).WithDataType(entity.FieldTypeVarChar).WithMaxLength(65535))

	if err := c.client.CreateCollection(ctx, milvusclient.NewCreateCollectionOption(name, schema)); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	idx := index.NewHNSWIndex(entity.COSINE, c.opts.HNSWM, c.opts.HNSWEfConstruction)
	idxTask, err := c.client.CreateIndex(ctx, milvusclient.NewCreateIndexOption(name, FieldVector, idx))
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	if err := idxTask.Await(ctx); err != nil {
		return fmt.Errorf("failed to wait for index creation: %w", err)
	}

	// source filter index for probe and delete
	srcTask, err := c.client.CreateIndex(ctx, milvusclient.NewCreateIndexOption(name, FieldSource, index.NewInvertedIndex()))
	if err != nil {
		return fmt.Errorf("failed to create source index: %w", err)
	}
	return srcTask.Await(ctx)
}

// Row is one stored point in column-agnostic form.
type Row struct {
	ID         string
	Vector     []float32
	Source     string
	Heading    string
	ChunkIndex int64
	Page       int64
	Text       string
	Score      float32
}

// Upsert writes rows by primary key. With flush set the call returns only
// after the data is persisted and visible to queries.
func (c *Client) Upsert(ctx context.Context, name string, rows []Row, flush bool) error {
	if len(rows) == 0 {
		return nil
	}

	n := len(rows)
	ids := make([]string, n)
	vectors := make([][]float32, n)
	sources := make([]string, n)
	headings := make([]string, n)
	indexes := make([]int64, n)
	pages := make([]int64, n)
	texts := make([]string, n)
	for i, r := range rows {
		ids[i] = r.ID
		vectors[i] = r.Vector
		sources[i] = r.Source
		headings[i] = r.Heading
		indexes[i] = r.ChunkIndex
		pages[i] = r.Page
		texts[i] = r.Text
	}

	opt := milvusclient.NewColumnBasedInsertOption(name,
		column.NewColumnVarChar(FieldID, ids),
		column.NewColumnFloatVector(FieldVector, len(vectors[0]), vectors),
		column.NewColumnVarChar(FieldSource, sources),
		column.NewColumnVarChar(FieldHeading, headings),
		column.NewColumnInt64(FieldChunkIndex, indexes),
		column.NewColumnInt64(FieldPage, pages),
		column.NewColumnVarChar(FieldText, texts),
	)
	if _, err := c.client.Upsert(ctx, opt); err != nil {
		return fmt.Errorf("failed to upsert %d rows: %w", n, err)
	}

	if !flush {
		return nil
	}
	flushTask, err := c.client.Flush(ctx, milvusclient.NewFlushOption(name))
	if err != nil {
		return fmt.Errorf("failed to flush collection: %w", err)
	}
	if err := flushTask.Await(ctx); err != nil {
		return fmt.Errorf("failed to wait for flush: %w", err)
	}
	return nil
}

// Search runs an ANN search and returns hits with their payload.
func (c *Client) Search(ctx context.Context, name string, vector []float32, topK int) ([]Row, error) {
	results, err := c.client.Search(ctx, milvusclient.NewSearchOption(
		name,
		topK,
		[]entity.Vector{entity.FloatVector(vector)},
	).WithANNSField(FieldVector).
		WithSearchParam("ef", strconv.Itoa(max(c.opts.SearchEf, topK))).
		WithOutputFields(PayloadFields...))
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	rs := results[0]
	rows, err := rowsFromColumns(rs.ResultCount, rs.Fields)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		if i < len(rs.Scores) {
			rows[i].Score = rs.Scores[i]
		}
	}
	return rows, nil
}

// Query returns up to limit rows matching expr with strong consistency.
func (c *Client) Query(ctx context.Context, name, expr string, limit int) ([]Row, error) {
	opt := milvusclient.NewQueryOption(name).
		WithFilter(expr).
		WithOutputFields(PayloadFields...).
		WithConsistencyLevel(entity.ClStrong)
	if limit > 0 {
		opt = opt.WithLimit(limit)
	}

	rs, err := c.client.Query(ctx, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	return rowsFromColumns(rs.ResultCount, rs.Fields)
}

// Delete removes all rows matching expr and returns the deleted count.
func (c *Client) Delete(ctx context.Context, name, expr string) (int64, error) {
	res, err := c.client.Delete(ctx, milvusclient.NewDeleteOption(name).WithExpr(expr))
	if err != nil {
		return 0, fmt.Errorf("failed to delete: %w", err)
	}
	return res.DeleteCount, nil
}

// Count returns the number of rows in the collection.
func (c *Client) Count(ctx context.Context, name string) (int64, error) {
	rs, err := c.client.Query(ctx, milvusclient.NewQueryOption(name).
		WithOutputFields("count(*)").
		WithConsistencyLevel(entity.ClStrong))
	if err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}
	col := rs.GetColumn("count(*)")
	if col == nil || col.Len() == 0 {
		return 0, errors.New("count(*) column missing from result")
	}
	return col.GetAsInt64(0)
}

// DropCollection drops a collection. Dropping a missing collection is not an error.
func (c *Client) DropCollection(ctx context.Context, name string) error {
	exists, err := c.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(name))
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}
	if !exists {
		return nil
	}
	if err := c.client.DropCollection(ctx, milvusclient.NewDropCollectionOption(name)); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	return nil
}

func rowsFromColumns(n int, fields []column.Column) ([]Row, error) {
	rows := make([]Row, n)
	for _, col := range fields {
		for i := 0; i < n; i++ {
			var err error
			switch col.Name() {
			case FieldID:
				rows[i].ID, err = col.GetAsString(i)
			case FieldSource:
				rows[i].Source, err = col.GetAsString(i)
			case FieldHeading:
				rows[i].Heading, err = col.GetAsString(i)
			case FieldText:
				rows[i].Text, err = col.GetAsString(i)
			case FieldChunkIndex:
				rows[i].ChunkIndex, err = col.GetAsInt64(i)
			case FieldPage:
				rows[i].Page, err = col.GetAsInt64(i)
			}
			if err != nil {
				return nil, fmt.Errorf("failed to read field %s: %w", col.Name(), err)
			}
		}
	}
	return rows, nil
}
