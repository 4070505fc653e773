package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"knowledge-chat-be/internal/dto"
	"knowledge-chat-be/internal/entity"
	"knowledge-chat-be/internal/repository/specification"
	"knowledge-chat-be/internal/repository/unitofwork"
	"knowledge-chat-be/pkg/embedding"
	"knowledge-chat-be/pkg/utils"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
) IConsumerService {
	return &consumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishEmbedDocumentMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	log.Printf("[INFO] Processing embeddings for DocumentId: %s", payload.DocumentId)

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: payload.DocumentId})
	if err != nil {
		log.Printf("[ERROR] Failed to get document %s: %v", payload.DocumentId, err)
		msg.Nack() // Nack for retriable errors
		return
	}
	if doc == nil {
		log.Printf("[ERROR] Document not found: %s", payload.DocumentId)
		msg.Ack() // Document deleted? Ack.
		return
	}

	docUpdatedAt := "-"
	if doc.UpdatedAt != nil {
		docUpdatedAt = doc.UpdatedAt.Format(time.RFC3339)
	}

	content := fmt.Sprintf(`Document Title: %s

%s

Created At: %s
Updated At: %s`,
		doc.Title,
		doc.Content,
		doc.CreatedAt.Format(time.RFC3339),
		docUpdatedAt,
	)

	log.Printf("[INFO] Generating embeddings for document %s (content length: %d)", payload.DocumentId, len(content))

	// ChunkSize: 1500 chars (approx 375 tokens), Overlap: 200 chars
	chunks := utils.SplitText(content, 1500, 200)
	log.Printf("[INFO] Content split into %d chunks", len(chunks))

	var newEmbeddings []*entity.DocumentEmbedding

	for i, chunk := range chunks {
		res, err := cs.embeddingProvider.Generate(ctx, chunk, embedding.TaskRetrievalDocument)
		if err != nil {
			log.Printf("[ERROR] Failed to generate embedding for chunk %d of document %s: %v", i, payload.DocumentId, err)
			msg.Nack()
			return
		}

		newEmbeddings = append(newEmbeddings, &entity.DocumentEmbedding{
			Id:             uuid.New(),
			Chunk:          chunk,
			EmbeddingValue: res.Embedding.Values,
			DocumentId:     doc.Id,
			ChunkIndex:     i,
			CreatedAt:      time.Now(),
		})
	}

	if err := uow.Begin(ctx); err != nil {
		log.Printf("[ERROR] Failed to begin transaction: %v", err)
		msg.Nack()
		return
	}
	defer uow.Rollback()

	log.Printf("[INFO] Deleting old embeddings for document %s", payload.DocumentId)
	if err := uow.DocumentEmbeddingRepository().DeleteByDocumentId(ctx, doc.Id); err != nil {
		log.Printf("[ERROR] Failed to delete old embeddings: %v", err)
		msg.Nack()
		return
	}

	if len(newEmbeddings) > 0 {
		if err := uow.DocumentEmbeddingRepository().CreateBulk(ctx, newEmbeddings); err != nil {
			log.Printf("[ERROR] Failed to create bulk embeddings: %v", err)
			msg.Nack()
			return
		}
	}

	if err := uow.Commit(); err != nil {
		log.Printf("[ERROR] Failed to commit transaction: %v", err)
		msg.Nack()
		return
	}

	log.Printf("[SUCCESS] Document processed: %d chunks for DocumentId: %s", len(newEmbeddings), payload.DocumentId)
	msg.Ack()
}
