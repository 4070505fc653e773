package contract

import (
	"context"

	"knowledge-chat-be/internal/entity"
	"knowledge-chat-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ScoredDocumentEmbedding wraps DocumentEmbedding with its similarity score
type ScoredDocumentEmbedding struct {
	Embedding  *entity.DocumentEmbedding
	Similarity float64 // 0.0 to 1.0 (1.0 = identical)
}

type DocumentEmbeddingRepository interface {
	Create(ctx context.Context, embedding *entity.DocumentEmbedding) error
	CreateBulk(ctx context.Context, embeddings []*entity.DocumentEmbedding) error
	Update(ctx context.Context, embedding *entity.DocumentEmbedding) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteAllByUserIdUnscoped(ctx context.Context, userId uuid.UUID) error // Hard delete embeddings
	DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.DocumentEmbedding, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentEmbedding, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// SearchSimilarWithScore returns embeddings with their similarity scores, filtered by threshold
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, userId uuid.UUID, threshold float64) ([]*ScoredDocumentEmbedding, error)
}
