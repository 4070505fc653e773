package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSessionResponse struct {
	Id uuid.UUID `json:"id"`
}

type GetAllSessionsResponse struct {
	Id        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

type GetChatHistoryResponse struct {
	Id        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type SendChatRequest struct {
	ChatSessionId uuid.UUID `json:"chat_session_id" validate:"required"`
	Message       string    `json:"message" validate:"required"`
}

type SendChatResponseChat struct {
	Id        uuid.UUID `json:"id"`
	Content   string    `json:"content"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// ExecutionSummary surfaces what the plan execution did, without exposing
// the plan itself.
type ExecutionSummary struct {
	GroupCount          int     `json:"group_count"`
	SuccessCount        int     `json:"success_count"`
	FailureCount        int     `json:"failure_count"`
	TotalElapsedSeconds float64 `json:"total_elapsed_seconds"`
}

type SendChatResponse struct {
	ChatSessionId          uuid.UUID             `json:"chat_session_id"`
	ChatSessionTitle       string                `json:"title"`
	Sent                   *SendChatResponseChat `json:"sent"`
	Reply                  *SendChatResponseChat `json:"reply"`
	NeedsClarification     bool                  `json:"needs_clarification,omitempty"`
	ClarificationQuestions []string              `json:"clarification_questions,omitempty"`
	Execution              *ExecutionSummary     `json:"execution,omitempty"`
}

type DeleteSessionRequest struct {
	ChatSessionId uuid.UUID `json:"chat_session_id"`
}

// --- Limit Exceeded Response Types ---

// LimitExceededData is the data payload for 429 responses
type LimitExceededData struct {
	Limit      int       `json:"limit"`
	ResetAfter time.Time `json:"reset_after"`
}

// LimitExceededResponse is the full 429 response structure
type LimitExceededResponse struct {
	Success   bool              `json:"success"`
	Code      int               `json:"code"`
	Message   string            `json:"message"`
	ErrorType string            `json:"error_type"`
	Data      LimitExceededData `json:"data"`
}
