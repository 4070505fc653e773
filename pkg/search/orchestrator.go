package search

import (
	"context"
	"fmt"
	"log"

	"knowledge-chat-be/internal/repository/contract"
	"knowledge-chat-be/internal/repository/specification"
	"knowledge-chat-be/internal/repository/unitofwork"
	"knowledge-chat-be/pkg/embedding"
	"knowledge-chat-be/pkg/store"

	"github.com/google/uuid"
)

// Orchestrator handles vector search and candidate filtering
type Orchestrator struct {
	embeddingProvider embedding.EmbeddingProvider
	logger            *log.Logger
}

// NewOrchestrator creates a new search orchestrator
func NewOrchestrator(embeddingProvider embedding.EmbeddingProvider, logger *log.Logger) *Orchestrator {
	return &Orchestrator{
		embeddingProvider: embeddingProvider,
		logger:            logger,
	}
}

// Config encapsulates search parameters
type Config struct {
	DBThreshold    float64
	LogicThreshold float64
	TopK           int
}

// DefaultConfig returns default search configuration
func DefaultConfig() Config {
	return Config{
		DBThreshold:    0.0,
		LogicThreshold: 0.35,
		TopK:           10,
	}
}

// Execute runs vector search and returns filtered, hydrated hits
func (o *Orchestrator) Execute(
	ctx context.Context,
	uow unitofwork.UnitOfWork,
	userId uuid.UUID,
	query string,
	config Config,
) ([]store.SearchHit, error) {

	embeddingRes, err := o.embeddingProvider.Generate(ctx, query, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}

	scoredResults, err := uow.DocumentEmbeddingRepository().SearchSimilarWithScore(
		ctx,
		embeddingRes.Embedding.Values,
		config.TopK,
		userId,
		config.DBThreshold,
	)
	if err != nil {
		o.logger.Printf("[ERROR] Vector search failed: %v", err)
		return nil, err
	}

	o.logger.Printf("[DEBUG] Raw search results: %d chunks", len(scoredResults))

	hits := o.filterAndDeduplicate(scoredResults, config.LogicThreshold)

	o.logger.Printf("[DEBUG] Filtered candidates: %d documents", len(hits))

	if err := o.hydrate(ctx, uow, hits); err != nil {
		o.logger.Printf("[WARN] Failed to hydrate candidates: %v", err)
	}

	return hits, nil
}

// filterAndDeduplicate keeps the best chunk per document above the logic
// threshold. Results arrive ordered by similarity, so the first chunk seen
// for a document is its best one.
func (o *Orchestrator) filterAndDeduplicate(
	results []*contract.ScoredDocumentEmbedding,
	threshold float64,
) []store.SearchHit {

	var hits []store.SearchHit
	seen := make(map[string]bool)

	for i, res := range results {
		if res.Similarity >= threshold {
			docId := res.Embedding.DocumentId.String()

			if seen[docId] {
				continue
			}

			hits = append(hits, store.SearchHit{
				ID:      docId,
				Content: res.Embedding.Chunk,
				Score:   float32(res.Similarity),
			})

			seen[docId] = true

			o.logger.Printf("[DEBUG] Candidate %d: Score=%.4f [KEEP]", i+1, res.Similarity)
		} else {
			o.logger.Printf("[DEBUG] Candidate %d: Score=%.4f [FILTERED]", i+1, res.Similarity)
		}
	}

	return hits
}

// hydrate attaches titles and source metadata from the documents table. A
// single hit additionally gets the full document content (auto-focus).
func (o *Orchestrator) hydrate(
	ctx context.Context,
	uow unitofwork.UnitOfWork,
	hits []store.SearchHit,
) error {

	if len(hits) == 0 {
		return nil
	}

	docIds := make([]uuid.UUID, len(hits))
	for i, h := range hits {
		docIds[i] = uuid.MustParse(h.ID)
	}

	docs, err := uow.DocumentRepository().FindAll(ctx, specification.ByIDs{IDs: docIds})
	if err != nil {
		return err
	}

	titleMap := make(map[string]string)
	contentMap := make(map[string]string)
	metaMap := make(map[string]map[string]interface{})
	for _, d := range docs {
		idStr := d.Id.String()
		titleMap[idStr] = d.Title
		contentMap[idStr] = d.Content
		metaMap[idStr] = d.SourceMetadata
	}

	for i := range hits {
		if title, ok := titleMap[hits[i].ID]; ok {
			hits[i].Title = title
		} else {
			hits[i].Title = "Untitled Document"
		}
		hits[i].SourceMetadata = metaMap[hits[i].ID]

		if len(hits) == 1 {
			if content, ok := contentMap[hits[i].ID]; ok {
				hits[i].Content = content
			}
		}
	}

	return nil
}
