package events

import "time"

// Event type codes published to the bus
const (
	TypeDocumentCreated = "DOCUMENT_CREATED"
	TypeDocumentDeleted = "DOCUMENT_DELETED"
	TypeChatAnswered    = "CHAT_ANSWERED"
)

// NewDocumentCreated is emitted after a document is stored and queued for
// embedding.
func NewDocumentCreated(documentID, userID string) Event {
	return BaseEvent{
		Type: TypeDocumentCreated,
		Data: map[string]interface{}{
			"document_id": documentID,
			"user_id":     userID,
		},
		OccurredAt: time.Now(),
	}
}

// NewDocumentDeleted is emitted after a document and its embeddings are removed.
func NewDocumentDeleted(documentID, userID string) Event {
	return BaseEvent{
		Type: TypeDocumentDeleted,
		Data: map[string]interface{}{
			"document_id": documentID,
			"user_id":     userID,
		},
		OccurredAt: time.Now(),
	}
}

// NewChatAnswered is emitted after a chat turn completes, with the outcome
// counts of the executed plan.
func NewChatAnswered(sessionID, userID string, succeeded, failed int) Event {
	return BaseEvent{
		Type: TypeChatAnswered,
		Data: map[string]interface{}{
			"session_id":    sessionID,
			"user_id":       userID,
			"success_count": succeeded,
			"failure_count": failed,
		},
		OccurredAt: time.Now(),
	}
}
