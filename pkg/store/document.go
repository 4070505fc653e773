package store

// SearchHit represents one scored result from the knowledge search collaborator
type SearchHit struct {
	ID             string                 `json:"id"`
	Title          string                 `json:"title"`
	Content        string                 `json:"content"`
	Score          float32                `json:"score"`
	SourceMetadata map[string]interface{} `json:"source_metadata,omitempty"`
}

// DocumentSummary is the lightweight listing shape returned by the document store
type DocumentSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Session represents the active conversation session state in memory
type Session struct {
	ID     string `json:"id"` // ChatSessionID
	UserID string `json:"user_id"`

	// Metadata for last interaction
	LastQuery     string   `json:"last_query"`
	LastQuestions []string `json:"last_questions"` // sub-questions from the last executed plan
}
