package engine

import (
	"context"

	"knowledge-chat-be/pkg/store"
)

// KnowledgeSearcher runs semantic retrieval over the embedded knowledge base.
type KnowledgeSearcher interface {
	Search(ctx context.Context, userID, query string, limit int) ([]store.SearchHit, error)
}

// DocumentStore exposes the document operations actions may request.
type DocumentStore interface {
	ListDocuments(ctx context.Context, userID string, limit int) ([]store.DocumentSummary, error)
	GetDocumentContent(ctx context.Context, userID, documentID string) (string, error)
}

// Embedder produces an embedding vector for a piece of text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Collaborators bundles the external dependencies the dispatcher calls into.
// All fields are required.
type Collaborators struct {
	Searcher  KnowledgeSearcher
	Documents DocumentStore
	Embedder  Embedder
}
