package entity

import (
	"time"

	"github.com/google/uuid"
)

type Document struct {
	Id      uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title   string
	Content string
	// SourceMetadata carries ingestion provenance (origin URL, file name,
	// mime type) and travels with every search hit over this document.
	SourceMetadata map[string]interface{}
	UserId         uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt      time.Time
	UpdatedAt      *time.Time
	DeletedAt      *time.Time
	IsDeleted      bool
}
