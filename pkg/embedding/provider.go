package embedding

import (
	"context"
	"errors"
)

// Task types understood by the embedding backends that distinguish between
// indexing and querying.
const (
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
)

// ErrRateLimited is reported when the upstream embedding API rejects a call
// for quota reasons.
var ErrRateLimited = errors.New("embedding provider rate limited")

// EmbeddingProvider defines the interface for generating text embeddings
type EmbeddingProvider interface {
	Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error)
}
