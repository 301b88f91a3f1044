// Package registry persists the per-source manifest of ingested chunk ids.
package registry

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kart-io/evorag/internal/model"
	errno "github.com/kart-io/evorag/pkg/errors"
)

// Store is a gorm-backed document registry.
type Store struct {
	db *gorm.DB
}

// New creates a registry store on db.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate creates or updates the registry table.
func (s *Store) AutoMigrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&model.Document{})
}

// Save inserts doc or replaces the entry with the same source.
func (s *Store) Save(ctx context.Context, doc *model.Document) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "source"}},
		DoUpdates: clause.AssignmentColumns([]string{"chunk_count", "chunk_ids", "content_hash", "updated_at"}),
	}).Create(doc).Error
	if err != nil {
		return errno.ErrDatabase.WithCause(err)
	}
	return nil
}

// Get returns the entry for source, or an error matching errno.ErrNotFound.
func (s *Store) Get(ctx context.Context, source string) (*model.Document, error) {
	var doc model.Document
	err := s.db.WithContext(ctx).Where("source = ?", source).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errno.ErrNotFound.WithMessagef("document %q not registered", source)
	}
	if err != nil {
		return nil, errno.ErrDatabase.WithCause(err)
	}
	return &doc, nil
}

// List returns all entries ordered by source.
func (s *Store) List(ctx context.Context) ([]*model.Document, error) {
	var docs []*model.Document
	if err := s.db.WithContext(ctx).Order("source").Find(&docs).Error; err != nil {
		return nil, errno.ErrDatabase.WithCause(err)
	}
	return docs, nil
}

// Delete removes the entry for source. Deleting a missing entry is not an error.
func (s *Store) Delete(ctx context.Context, source string) error {
	err := s.db.WithContext(ctx).Where("source = ?", source).Delete(&model.Document{}).Error
	if err != nil {
		return errno.ErrDatabase.WithCause(err)
	}
	return nil
}
