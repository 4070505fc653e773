package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"knowledge-chat-be/internal/repository/specification"
	"knowledge-chat-be/internal/repository/unitofwork"
	"knowledge-chat-be/pkg/embedding"
	"knowledge-chat-be/pkg/plan/engine"
	"knowledge-chat-be/pkg/search"
	"knowledge-chat-be/pkg/store"

	"github.com/google/uuid"
)

// The adapters in this file bind the execution engine's collaborator
// interfaces to the repository and provider layers. They translate between
// the engine's string identifiers and the uuid types the repositories use,
// and map provider rate-limit errors onto the engine's sentinel so the
// dispatcher can skip retries.

type searcherAdapter struct {
	uowFactory   unitofwork.RepositoryFactory
	orchestrator *search.Orchestrator
	logger       *log.Logger
}

func (a *searcherAdapter) Search(ctx context.Context, userID, query string, limit int) ([]store.SearchHit, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", userID, err)
	}

	config := search.DefaultConfig()
	if limit > 0 {
		config.TopK = limit
	}

	uow := a.uowFactory.NewUnitOfWork(ctx)
	hits, err := a.orchestrator.Execute(ctx, uow, uid, query, config)
	if err != nil {
		if errors.Is(err, embedding.ErrRateLimited) {
			return nil, fmt.Errorf("knowledge search: %w", engine.ErrRateLimited)
		}
		return nil, err
	}
	return hits, nil
}

type documentStoreAdapter struct {
	uowFactory unitofwork.RepositoryFactory
}

func (a *documentStoreAdapter) ListDocuments(ctx context.Context, userID string, limit int) ([]store.DocumentSummary, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", userID, err)
	}

	uow := a.uowFactory.NewUnitOfWork(ctx)
	specs := []specification.Specification{
		specification.UserOwnedBy{UserID: uid},
		specification.OrderBy{Field: "created_at", Desc: true},
	}
	if limit > 0 {
		specs = append(specs, specification.Pagination{Limit: limit})
	}

	docs, err := uow.DocumentRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	summaries := make([]store.DocumentSummary, 0, len(docs))
	for _, doc := range docs {
		summaries = append(summaries, store.DocumentSummary{
			ID:    doc.Id.String(),
			Title: doc.Title,
		})
	}
	return summaries, nil
}

func (a *documentStoreAdapter) GetDocumentContent(ctx context.Context, userID, documentID string) (string, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return "", fmt.Errorf("invalid user id %q: %w", userID, err)
	}
	docID, err := uuid.Parse(documentID)
	if err != nil {
		return "", fmt.Errorf("invalid document id %q: %w", documentID, err)
	}

	uow := a.uowFactory.NewUnitOfWork(ctx)
	doc, err := uow.DocumentRepository().FindOne(ctx,
		specification.ByID{ID: docID},
		specification.UserOwnedBy{UserID: uid},
	)
	if err != nil {
		return "", err
	}
	if doc == nil {
		return "", fmt.Errorf("document %s not found or access denied", documentID)
	}
	return doc.Content, nil
}

type embedderAdapter struct {
	provider embedding.EmbeddingProvider
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) ([]float32, error) {
	res, err := a.provider.Generate(ctx, text, embedding.TaskRetrievalDocument)
	if err != nil {
		if errors.Is(err, embedding.ErrRateLimited) {
			return nil, fmt.Errorf("embedding generation: %w", engine.ErrRateLimited)
		}
		return nil, err
	}
	return res.Embedding.Values, nil
}

func newEngineCollaborators(
	uowFactory unitofwork.RepositoryFactory,
	orchestrator *search.Orchestrator,
	embeddingProvider embedding.EmbeddingProvider,
	logger *log.Logger,
) engine.Collaborators {
	return engine.Collaborators{
		Searcher:  &searcherAdapter{uowFactory: uowFactory, orchestrator: orchestrator, logger: logger},
		Documents: &documentStoreAdapter{uowFactory: uowFactory},
		Embedder:  &embedderAdapter{provider: embeddingProvider},
	}
}
