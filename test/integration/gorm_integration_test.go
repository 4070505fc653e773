package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"knowledge-chat-be/internal/entity"
	"knowledge-chat-be/internal/repository/specification"
	"knowledge-chat-be/internal/repository/unitofwork"
	"knowledge-chat-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	// Verify Wiring
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.DocumentRepository())
	assert.NotNil(t, uow.DocumentEmbeddingRepository())
	assert.NotNil(t, uow.ChatSessionRepository())
	assert.NotNil(t, uow.ChatMessageRepository())

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)
	t.Log("Successfully connected to DB and initialized UnitOfWork Factory")

	t.Run("Check Document Repository", func(t *testing.T) {
		count, err := uow.DocumentRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("Documents in DB: %d", count)
	})

	t.Run("Document round trip", func(t *testing.T) {
		userId := uuid.New()
		doc := entity.Document{
			Id:      uuid.New(),
			Title:   "Integration test document",
			Content: "This document only exists while the test runs.",
			SourceMetadata: map[string]interface{}{
				"origin": "integration-test",
			},
			UserId:    userId,
			CreatedAt: time.Now(),
		}

		err := uow.DocumentRepository().Create(context.Background(), &doc)
		assert.NoError(t, err)

		found, err := uow.DocumentRepository().FindOne(context.Background(),
			specification.ByID{ID: doc.Id},
			specification.UserOwnedBy{UserID: userId},
		)
		assert.NoError(t, err)
		if assert.NotNil(t, found) {
			assert.Equal(t, doc.Title, found.Title)
			assert.Equal(t, "integration-test", found.SourceMetadata["origin"])
		}

		// Cleanup
		err = uow.DocumentRepository().DeleteAllByUserIdUnscoped(context.Background(), userId)
		assert.NoError(t, err)
	})

	t.Run("Chat session round trip", func(t *testing.T) {
		userId := uuid.New()
		sess := entity.ChatSession{
			Id:        uuid.New(),
			UserId:    userId,
			Title:     "Integration test session",
			CreatedAt: time.Now(),
		}

		err := uow.ChatSessionRepository().Create(context.Background(), &sess)
		assert.NoError(t, err)

		msg := entity.ChatMessage{
			Id:            uuid.New(),
			Content:       "hello",
			Role:          "user",
			ChatSessionId: sess.Id,
			CreatedAt:     time.Now(),
		}
		err = uow.ChatMessageRepository().Create(context.Background(), &msg)
		assert.NoError(t, err)

		messages, err := uow.ChatMessageRepository().FindAll(context.Background(),
			specification.ByChatSessionID{ChatSessionID: sess.Id},
		)
		assert.NoError(t, err)
		assert.Len(t, messages, 1)

		// Cleanup
		err = uow.ChatMessageRepository().DeleteAllByUserIdUnscoped(context.Background(), userId)
		assert.NoError(t, err)
		err = uow.ChatSessionRepository().DeleteAllByUserIdUnscoped(context.Background(), userId)
		assert.NoError(t, err)
	})
}
