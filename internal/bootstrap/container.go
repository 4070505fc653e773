package bootstrap

import (
	"context"
	"log"
	"time"

	"knowledge-chat-be/internal/config"
	"knowledge-chat-be/internal/controller"
	"knowledge-chat-be/internal/pkg/logger"
	"knowledge-chat-be/internal/repository/memory"
	"knowledge-chat-be/internal/repository/unitofwork"
	"knowledge-chat-be/internal/service"
	"knowledge-chat-be/pkg/embedding"
	"knowledge-chat-be/pkg/embedding/jina"
	"knowledge-chat-be/pkg/llm/factory"
	"knowledge-chat-be/pkg/ratelimit"

	pktNats "knowledge-chat-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	DocumentController controller.IDocumentController
	ChatController     controller.IChatController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// Shared infrastructure
	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else if cfg.Ai.EmbeddingProvider == "jina" {
		embeddingProvider = jina.NewJinaProvider(cfg.Keys.Jina)
		log.Printf("[INFO] Using Embedding Provider: JINA AI")
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.LLMBaseURL,
		cfg.Keys.OpenAI,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// In-memory session storage for hot conversation state
	sessionRepo := memory.NewSessionRepository()

	// 4. Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	limiter := ratelimit.NewLimiter(rdb, cfg.Usage.DailyLimit, 24*time.Hour)

	// 5. Services
	publisherService := service.NewPublisherService(pubSub, cfg.Keys.EmbedTopic)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Keys.EmbedTopic,
		uowFactory,
		embeddingProvider,
	)

	// Event audit trail (worker)
	if natsSub != nil {
		auditLog := logger.NewIsolatedLogger("logs/events.log")
		eventLogService := service.NewEventLogService(natsSub, auditLog)
		if err := eventLogService.Start(); err != nil {
			log.Printf("[WARN] Failed to start event audit log: %v", err)
		}
	}

	documentService := service.NewDocumentService(uowFactory, publisherService, natsPub)
	chatService := service.NewChatService(
		cfg,
		uowFactory,
		embeddingProvider,
		llmProvider,
		sessionRepo,
		limiter,
		natsPub,
	)

	// 6. Controllers
	return &Container{
		DocumentController: controller.NewDocumentController(documentService),
		ChatController:     controller.NewChatController(chatService),
		ConsumerService:    consumerService,
		Logger:             sysLogger,
	}
}
