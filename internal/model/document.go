// Package model provides data models for EvoRAG.
package model

import (
	"time"
)

// Document is the registry entry for one ingested source.
// ChunkIDs holds the chunk id set upserted on the most recent ingestion.
type Document struct {
	ID          uint      `json:"-" gorm:"primaryKey;autoIncrement"`
	Source      string    `json:"source" gorm:"type:varchar(512);uniqueIndex;not null"`
	ChunkCount  int       `json:"chunk_count" gorm:"not null;default:0"`
	ChunkIDs    []string  `json:"chunk_ids,omitempty" gorm:"type:text;serializer:json"`
	ContentHash string    `json:"content_hash" gorm:"type:varchar(64)"`
	IngestedAt  time.Time `json:"ingested_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for Document.
func (Document) TableName() string {
	return "evorag_documents"
}
