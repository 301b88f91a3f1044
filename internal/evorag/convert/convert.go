// Package convert turns raw document files into a typed element stream.
package convert

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	errno "github.com/kart-io/evorag/pkg/errors"
)

// Kind is the type of a document element.
type Kind string

const (
	KindHeading  Kind = "heading"
	KindText     Kind = "text"
	KindListItem Kind = "list_item"
)

// Element is one structural unit of a converted document.
// Page is nil when the format has no page concept.
type Element struct {
	Kind Kind
	Text string
	Page *int
}

// Converter converts the file at path into elements in document order.
type Converter interface {
	Convert(ctx context.Context, path string) ([]Element, error)
}

// Registry dispatches conversion by lower-cased file extension.
type Registry struct {
	mu         sync.RWMutex
	converters map[string]Converter
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{converters: make(map[string]Converter)}
}

// DefaultRegistry returns a registry with the built-in text converters.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	md := &Markdown{}
	for _, ext := range []string{".md", ".markdown", ".txt", ".text"} {
		r.Register(ext, md)
	}
	return r
}

// Register binds ext (with leading dot) to c.
func (r *Registry) Register(ext string, c Converter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.converters[strings.ToLower(ext)] = c
}

// Supports reports whether path has a registered extension.
func (r *Registry) Supports(path string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.converters[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Extensions lists registered extensions in sorted order.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.converters))
	for ext := range r.converters {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Convert implements Converter.
func (r *Registry) Convert(ctx context.Context, path string) ([]Element, error) {
	ext := strings.ToLower(filepath.Ext(path))

	r.mu.RLock()
	c, ok := r.converters[ext]
	r.mu.RUnlock()
	if !ok {
		return nil, errno.ErrConversion.WithMessagef("unsupported document type %q", ext)
	}

	elements, err := c.Convert(ctx, path)
	if err != nil {
		return nil, errno.ErrConversion.WithCause(err)
	}
	return elements, nil
}

// FindFiles walks dir and returns files the registry can convert.
func (r *Registry) FindFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && r.Supports(path) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
