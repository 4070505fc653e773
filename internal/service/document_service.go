package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"knowledge-chat-be/internal/dto"
	"knowledge-chat-be/internal/entity"
	"knowledge-chat-be/internal/repository/specification"
	"knowledge-chat-be/internal/repository/unitofwork"
	"knowledge-chat-be/pkg/events"
	pktNats "knowledge-chat-be/pkg/nats"

	"github.com/google/uuid"
)

type IDocumentService interface {
	Create(ctx context.Context, userId uuid.UUID, req *dto.CreateDocumentRequest) (*dto.CreateDocumentResponse, error)
	Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.ShowDocumentResponse, error)
	List(ctx context.Context, userId uuid.UUID) ([]*dto.ListDocumentsResponse, error)
	Update(ctx context.Context, userId uuid.UUID, req *dto.UpdateDocumentRequest) (*dto.UpdateDocumentResponse, error)
	Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error
}

type documentService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	eventPublisher   *pktNats.Publisher
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	eventPublisher *pktNats.Publisher,
) IDocumentService {
	return &documentService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
	}
}

func (c *documentService) Create(ctx context.Context, userId uuid.UUID, req *dto.CreateDocumentRequest) (*dto.CreateDocumentResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	doc := entity.Document{
		Id:             uuid.New(),
		Title:          req.Title,
		Content:        req.Content,
		SourceMetadata: req.SourceMetadata,
		UserId:         userId,
		CreatedAt:      time.Now(),
	}

	if err := uow.DocumentRepository().Create(ctx, &doc); err != nil {
		return nil, err
	}

	if err := c.publishEmbedMessage(ctx, doc.Id); err != nil {
		return nil, err
	}

	// Auxiliary event, failure does not fail the request
	if c.eventPublisher != nil {
		evt := events.NewDocumentCreated(doc.Id.String(), userId.String())
		if err := c.eventPublisher.Publish(ctx, evt); err != nil {
			fmt.Printf("[WARN] Failed to publish DOCUMENT_CREATED event: %v\n", err)
		}
	}

	return &dto.CreateDocumentResponse{Id: doc.Id}, nil
}

func (c *documentService) Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.ShowDocumentResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	doc, err := uow.DocumentRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil // Not found
	}

	return &dto.ShowDocumentResponse{
		Id:             doc.Id,
		Title:          doc.Title,
		Content:        doc.Content,
		SourceMetadata: doc.SourceMetadata,
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
	}, nil
}

func (c *documentService) List(ctx context.Context, userId uuid.UUID) ([]*dto.ListDocumentsResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	docs, err := uow.DocumentRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	response := make([]*dto.ListDocumentsResponse, 0, len(docs))
	for _, doc := range docs {
		response = append(response, &dto.ListDocumentsResponse{
			Id:        doc.Id,
			Title:     doc.Title,
			CreatedAt: doc.CreatedAt,
			UpdatedAt: doc.UpdatedAt,
		})
	}
	return response, nil
}

func (c *documentService) Update(ctx context.Context, userId uuid.UUID, req *dto.UpdateDocumentRequest) (*dto.UpdateDocumentResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	doc, err := uow.DocumentRepository().FindOne(ctx,
		specification.ByID{ID: req.Id},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}

	now := time.Now()
	doc.Title = req.Title
	doc.Content = req.Content
	if req.SourceMetadata != nil {
		doc.SourceMetadata = req.SourceMetadata
	}
	doc.UpdatedAt = &now

	if err := uow.DocumentRepository().Update(ctx, doc); err != nil {
		return nil, err
	}

	// Content changed, embeddings must be rebuilt
	if err := c.publishEmbedMessage(ctx, doc.Id); err != nil {
		return nil, err
	}

	return &dto.UpdateDocumentResponse{Id: doc.Id}, nil
}

func (c *documentService) Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	doc, err := uow.DocumentRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return err
	}
	if doc == nil {
		return nil
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.DocumentRepository().Delete(ctx, id); err != nil {
		return err
	}
	if err := uow.DocumentEmbeddingRepository().DeleteByDocumentId(ctx, id); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return err
	}

	if c.eventPublisher != nil {
		evt := events.NewDocumentDeleted(id.String(), userId.String())
		if err := c.eventPublisher.Publish(ctx, evt); err != nil {
			fmt.Printf("[WARN] Failed to publish DOCUMENT_DELETED event: %v\n", err)
		}
	}

	return nil
}

func (c *documentService) publishEmbedMessage(ctx context.Context, documentId uuid.UUID) error {
	payload := dto.PublishEmbedDocumentMessage{DocumentId: documentId}
	payloadJson, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return c.publisherService.Publish(ctx, payloadJson)
}
