package plan

// ActionType enumerates the backend operations a planner may request
type ActionType string

const (
	ActionSearchKnowledge    ActionType = "search_knowledge"
	ActionListDocuments      ActionType = "list_documents"
	ActionGenerateEmbeddings ActionType = "generate_embeddings"
	ActionGetDocumentContent ActionType = "get_document_content"
	ActionRespondDirectly    ActionType = "respond_directly"
)

// KnownActionType reports whether t is one of the supported action types
func KnownActionType(t ActionType) bool {
	switch t {
	case ActionSearchKnowledge, ActionListDocuments, ActionGenerateEmbeddings,
		ActionGetDocumentContent, ActionRespondDirectly:
		return true
	}
	return false
}

// GroupMode controls how the actions of one group are dispatched
type GroupMode string

const (
	ModeParallel   GroupMode = "parallel"
	ModeSequential GroupMode = "sequential"
)

// Action is one declared unit of backend work inside a plan
type Action struct {
	ID         string                 `json:"id,omitempty"`
	Type       ActionType             `json:"type"`
	Parameters map[string]interface{} `json:"parameters"`
	// Priority is a tie-break hint only (1 = highest); it does not order
	// actions within a group.
	Priority       int  `json:"priority"`
	Parallelizable bool `json:"parallelizable"`
	// DependsOn is declared by the planner but NOT interpreted by the
	// executor. Dependency intent is expressed through grouping and group
	// priority; the field is carried for forward compatibility.
	DependsOn []string `json:"depends_on,omitempty"`
}

// ActionGroup is a unit of scheduling: a set of actions sharing an
// execution mode and priority.
type ActionGroup struct {
	ID       string    `json:"id"`
	Actions  []Action  `json:"actions"`
	Mode     GroupMode `json:"mode"`
	Priority int       `json:"priority"` // 1 = highest; ascending execution order
	Context  string    `json:"context,omitempty"`
}

// ActionPlan is the strict JSON output expected from the planner LLM
type ActionPlan struct {
	Groups                  []ActionGroup `json:"groups"`
	Reasoning               string        `json:"reasoning"`
	RequiresExternalContext bool          `json:"requires_external_context"`
	Questions               []string      `json:"questions"`
	IsMultiQuestion         bool          `json:"is_multi_question"`
	NeedsClarification      bool          `json:"needs_clarification"`
	CanProceed              bool          `json:"can_proceed"`
	ClarificationQuestions  []string      `json:"clarification_questions"`
}

// TotalActions counts the actions across all groups
func (p *ActionPlan) TotalActions() int {
	total := 0
	for _, g := range p.Groups {
		total += len(g.Actions)
	}
	return total
}

// RequiresClarification reports whether the plan gates execution behind a
// clarification exchange: the executor must treat Groups as empty in that case.
func (p *ActionPlan) RequiresClarification() bool {
	return p.NeedsClarification && !p.CanProceed
}

// ActionResult is the uniform output of one executed action, populated
// regardless of success or failure.
type ActionResult struct {
	Type           ActionType             `json:"type"`
	Succeeded      bool                   `json:"succeeded"`
	Payload        map[string]interface{} `json:"payload,omitempty"`
	Error          string                 `json:"error,omitempty"`
	ElapsedSeconds float64                `json:"elapsed_seconds"`
	RetryCount     int                    `json:"retry_count"`
}
