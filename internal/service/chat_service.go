package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"knowledge-chat-be/internal/config"
	"knowledge-chat-be/internal/constant"
	"knowledge-chat-be/internal/dto"
	"knowledge-chat-be/internal/entity"
	"knowledge-chat-be/internal/repository/memory"
	"knowledge-chat-be/internal/repository/specification"
	"knowledge-chat-be/internal/repository/unitofwork"
	"knowledge-chat-be/pkg/embedding"
	"knowledge-chat-be/pkg/events"
	"knowledge-chat-be/pkg/llm"
	pktNats "knowledge-chat-be/pkg/nats"
	"knowledge-chat-be/pkg/plan/engine"
	"knowledge-chat-be/pkg/planner"
	"knowledge-chat-be/pkg/ratelimit"
	"knowledge-chat-be/pkg/retry"
	"knowledge-chat-be/pkg/search"
	"knowledge-chat-be/pkg/store"
	"knowledge-chat-be/pkg/synthesis"

	"github.com/google/uuid"
)

// IChatService defines the conversational backend interface
type IChatService interface {
	CreateSession(ctx context.Context, userId uuid.UUID) (*dto.CreateSessionResponse, error)
	GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error)
	GetChatHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.GetChatHistoryResponse, error)
	SendChat(ctx context.Context, userId uuid.UUID, request *dto.SendChatRequest) (*dto.SendChatResponse, error)
	DeleteSession(ctx context.Context, userId uuid.UUID, request *dto.DeleteSessionRequest) error
}

// chatService coordinates the plan-execute-synthesize loop around the
// persistence layer.
type chatService struct {
	uowFactory  unitofwork.RepositoryFactory
	sessionRepo *memory.SessionRepository
	limiter     *ratelimit.Limiter

	planner        *planner.Planner
	planExecutor   *engine.PlanExecutor
	synthesizer    *synthesis.Synthesizer
	eventPublisher *pktNats.Publisher

	engineLogger *log.Logger
}

func NewChatService(
	cfg *config.Config,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	llmProvider llm.LLMProvider,
	sessionRepo *memory.SessionRepository,
	limiter *ratelimit.Limiter,
	eventPublisher *pktNats.Publisher,
) IChatService {

	engineLogger := initEngineLogger()

	orchestrator := search.NewOrchestrator(embeddingProvider, engineLogger)
	collab := newEngineCollaborators(uowFactory, orchestrator, embeddingProvider, engineLogger)

	policy := retry.Policy{
		MaxAttempts: cfg.Engine.RetryAttempts,
		BaseDelay:   cfg.Engine.RetryBase,
		CapDelay:    cfg.Engine.RetryCap,
	}

	dispatcher := engine.NewDispatcher(collab, policy, engineLogger)
	groupExecutor := engine.NewGroupExecutor(dispatcher, cfg.Engine.WorkerCap, engineLogger)
	planExecutor := engine.NewPlanExecutor(groupExecutor, engineLogger)

	return &chatService{
		uowFactory:     uowFactory,
		sessionRepo:    sessionRepo,
		limiter:        limiter,
		planner:        planner.NewPlanner(llmProvider, engineLogger),
		planExecutor:   planExecutor,
		synthesizer:    synthesis.NewSynthesizer(llmProvider, engineLogger),
		eventPublisher: eventPublisher,
		engineLogger:   engineLogger,
	}
}

func initEngineLogger() *log.Logger {
	logPath := filepath.Join(".", "logs", "engine.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		log.Printf("Failed to create logs directory: %v", err)
	}
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return log.New(os.Stdout, "[ENGINE] ", log.LstdFlags)
	}
	return log.New(file, "", log.LstdFlags)
}

// CreateSession creates a new chat session seeded with a greeting
func (cs *chatService) CreateSession(ctx context.Context, userId uuid.UUID) (*dto.CreateSessionResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	now := time.Now()

	chatSession := entity.ChatSession{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     constant.DefaultSessionTitle,
		CreatedAt: now,
	}

	greeting := entity.ChatMessage{
		Id:            uuid.New(),
		Content:       constant.InitialGreeting,
		Role:          constant.ChatMessageRoleAssistant,
		ChatSessionId: chatSession.Id,
		CreatedAt:     now,
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.ChatSessionRepository().Create(ctx, &chatSession); err != nil {
		return nil, err
	}
	if err := uow.ChatMessageRepository().Create(ctx, &greeting); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	return &dto.CreateSessionResponse{Id: chatSession.Id}, nil
}

// GetAllSessions retrieves all chat sessions for the user
func (cs *chatService) GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	chatSessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	response := make([]*dto.GetAllSessionsResponse, 0, len(chatSessions))
	for _, s := range chatSessions {
		response = append(response, &dto.GetAllSessionsResponse{
			Id:        s.Id,
			Title:     s.Title,
			CreatedAt: s.CreatedAt,
			UpdatedAt: s.UpdatedAt,
		})
	}

	return response, nil
}

// GetChatHistory retrieves chat history for a session
func (cs *chatService) GetChatHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.GetChatHistoryResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	sess, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("session not found or access denied")
	}

	chatMessages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	resp := make([]*dto.GetChatHistoryResponse, 0, len(chatMessages))
	for _, msg := range chatMessages {
		resp = append(resp, &dto.GetChatHistoryResponse{
			Id:        msg.Id,
			Role:      msg.Role,
			Content:   msg.Content,
			CreatedAt: msg.CreatedAt,
		})
	}

	return resp, nil
}

// SendChat runs one conversational turn: plan, execute, synthesize, persist.
func (cs *chatService) SendChat(ctx context.Context, userId uuid.UUID, request *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	if err := cs.limiter.Allow(ctx, userId.String()); err != nil {
		return nil, err
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	chatSession, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: request.ChatSessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if chatSession == nil {
		return nil, fmt.Errorf("session not found or access denied")
	}

	existingMessages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: request.ChatSessionId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	history := buildLLMHistory(existingMessages)

	// Hot session state survives between turns in memory only
	sessionState, found := cs.sessionRepo.Get(request.ChatSessionId.String())
	if !found {
		sessionState = &store.Session{
			ID:     request.ChatSessionId.String(),
			UserID: userId.String(),
		}
	}

	actionPlan := cs.planner.Plan(ctx, request.Message, history, sessionState)

	records := cs.planExecutor.Execute(ctx, userId.String(), actionPlan)
	bundle := engine.Aggregate(records)

	reply := cs.synthesizer.Synthesize(ctx, request.Message, actionPlan, bundle, history)

	// Only the first user message renames the session (greeting is seeded)
	updateSessionTitle := len(existingMessages) <= 1
	now := time.Now()

	userMessage := entity.ChatMessage{
		Id:            uuid.New(),
		Content:       request.Message,
		Role:          constant.ChatMessageRoleUser,
		ChatSessionId: request.ChatSessionId,
		CreatedAt:     now,
	}
	assistantMessage := entity.ChatMessage{
		Id:            uuid.New(),
		Content:       reply,
		Role:          constant.ChatMessageRoleAssistant,
		ChatSessionId: request.ChatSessionId,
		CreatedAt:     now.Add(1 * time.Second),
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.ChatMessageRepository().Create(ctx, &userMessage); err != nil {
		return nil, err
	}
	if err := uow.ChatMessageRepository().Create(ctx, &assistantMessage); err != nil {
		return nil, err
	}

	if updateSessionTitle {
		chatSession.Title = titleFromMessage(request.Message)
		chatSession.UpdatedAt = &now
		if err := uow.ChatSessionRepository().Update(ctx, chatSession); err != nil {
			return nil, err
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	sessionState.LastQuery = request.Message
	if actionPlan.RequiresClarification() {
		sessionState.LastQuestions = actionPlan.ClarificationQuestions
	} else {
		sessionState.LastQuestions = actionPlan.Questions
	}
	cs.sessionRepo.Save(sessionState)

	if cs.eventPublisher != nil {
		evt := events.NewChatAnswered(
			request.ChatSessionId.String(),
			userId.String(),
			bundle.SuccessCount,
			bundle.FailureCount,
		)
		if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
			cs.engineLogger.Printf("[WARN] Failed to publish CHAT_ANSWERED event: %v", err)
		}
	}

	response := &dto.SendChatResponse{
		ChatSessionId:    chatSession.Id,
		ChatSessionTitle: chatSession.Title,
		Sent: &dto.SendChatResponseChat{
			Id:        userMessage.Id,
			Content:   userMessage.Content,
			Role:      userMessage.Role,
			CreatedAt: userMessage.CreatedAt,
		},
		Reply: &dto.SendChatResponseChat{
			Id:        assistantMessage.Id,
			Content:   assistantMessage.Content,
			Role:      assistantMessage.Role,
			CreatedAt: assistantMessage.CreatedAt,
		},
	}

	if actionPlan.RequiresClarification() {
		response.NeedsClarification = true
		response.ClarificationQuestions = actionPlan.ClarificationQuestions
	}
	if !bundle.Empty() {
		response.Execution = &dto.ExecutionSummary{
			GroupCount:          len(records),
			SuccessCount:        bundle.SuccessCount,
			FailureCount:        bundle.FailureCount,
			TotalElapsedSeconds: bundle.TotalElapsed,
		}
	}

	return response, nil
}

// DeleteSession soft-deletes a session and its messages
func (cs *chatService) DeleteSession(ctx context.Context, userId uuid.UUID, request *dto.DeleteSessionRequest) error {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	sess, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: request.ChatSessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return err
	}
	if sess == nil {
		return nil
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ChatMessageRepository().DeleteByChatSessionId(ctx, request.ChatSessionId); err != nil {
		return err
	}
	if err := uow.ChatSessionRepository().Delete(ctx, request.ChatSessionId); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return err
	}

	cs.sessionRepo.Delete(request.ChatSessionId.String())
	return nil
}

func buildLLMHistory(messages []*entity.ChatMessage) []llm.Message {
	history := make([]llm.Message, 0, len(messages))
	for _, msg := range messages {
		history = append(history, llm.Message{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}
	return history
}

func titleFromMessage(message string) string {
	runes := []rune(message)
	if len(runes) <= 50 {
		return message
	}
	return string(runes[:50]) + "..."
}
