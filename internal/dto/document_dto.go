package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateDocumentRequest struct {
	Title          string                 `json:"title" validate:"required"`
	Content        string                 `json:"content" validate:"required"`
	SourceMetadata map[string]interface{} `json:"source_metadata,omitempty"`
}

type CreateDocumentResponse struct {
	Id uuid.UUID `json:"id"`
}

type ShowDocumentResponse struct {
	Id             uuid.UUID              `json:"id"`
	Title          string                 `json:"title"`
	Content        string                 `json:"content"`
	SourceMetadata map[string]interface{} `json:"source_metadata,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      *time.Time             `json:"updated_at"`
}

type ListDocumentsResponse struct {
	Id        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

type UpdateDocumentRequest struct {
	Id             uuid.UUID
	Title          string                 `json:"title" validate:"required"`
	Content        string                 `json:"content" validate:"required"`
	SourceMetadata map[string]interface{} `json:"source_metadata,omitempty"`
}

type UpdateDocumentResponse struct {
	Id uuid.UUID `json:"id"`
}

// PublishEmbedDocumentMessage is the payload queued for the embedding worker
type PublishEmbedDocumentMessage struct {
	DocumentId uuid.UUID `json:"document_id"`
}
