package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

var _ VectorStore = (*Memory)(nil)

// Memory is an in-process VectorStore using cosine similarity.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]*memCollection

	// UpsertCalls and DeleteCalls count mutating calls.
	UpsertCalls int
	DeleteCalls int
}

type memCollection struct {
	dim    int
	points map[string]Point
	order  []string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{collections: make(map[string]*memCollection)}
}

// EnsureCollection creates the collection if absent.
func (m *Memory) EnsureCollection(_ context.Context, collection string, dim int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.collections[collection]; !ok {
		m.collections[collection] = &memCollection{dim: dim, points: make(map[string]Point)}
	}
	return nil
}

func (m *Memory) get(collection string) (*memCollection, error) {
	c, ok := m.collections[collection]
	if !ok {
		return nil, fmt.Errorf("collection %q not found", collection)
	}
	return c, nil
}

// Upsert overwrites points by id.
func (m *Memory) Upsert(_ context.Context, collection string, points []Point, _ bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.get(collection)
	if err != nil {
		return err
	}
	m.UpsertCalls++
	for _, p := range points {
		if c.dim > 0 && len(p.Vector) != c.dim {
			return fmt.Errorf("point %s: vector dimension %d, collection expects %d", p.ID, len(p.Vector), c.dim)
		}
		if _, exists := c.points[p.ID]; !exists {
			c.order = append(c.order, p.ID)
		}
		c.points[p.ID] = p
	}
	return nil
}

// Search ranks every point by cosine similarity.
func (m *Memory) Search(_ context.Context, collection string, vector []float32, limit int) ([]Hit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, err := m.get(collection)
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(c.points))
	for _, id := range c.order {
		p := c.points[id]
		hits = append(hits, Hit{ID: p.ID, Score: cosine(vector, p.Vector), Payload: p.Payload})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Scroll returns points matching filter in insertion order.
func (m *Memory) Scroll(_ context.Context, collection string, filter Filter, limit int) ([]Point, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, err := m.get(collection)
	if err != nil {
		return nil, err
	}

	var out []Point
	for _, id := range c.order {
		p := c.points[id]
		if !filter.Match(p.Payload) {
			continue
		}
		out = append(out, p)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// DeleteByFilter removes matching points.
func (m *Memory) DeleteByFilter(_ context.Context, collection string, filter Filter) error {
	if filter.Empty() {
		return ErrEmptyFilter
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.get(collection)
	if err != nil {
		return err
	}
	m.DeleteCalls++

	kept := c.order[:0]
	for _, id := range c.order {
		if filter.Match(c.points[id].Payload) {
			delete(c.points, id)
			continue
		}
		kept = append(kept, id)
	}
	c.order = kept
	return nil
}

// Count returns the number of points in collection.
func (m *Memory) Count(_ context.Context, collection string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, err := m.get(collection)
	if err != nil {
		return 0, err
	}
	return int64(len(c.points)), nil
}

// Drop removes collection.
func (m *Memory) Drop(_ context.Context, collection string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.collections, collection)
	return nil
}

// Close is a no-op.
func (m *Memory) Close(context.Context) error { return nil }

func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
