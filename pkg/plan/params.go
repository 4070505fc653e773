package plan

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ValidationError reports a missing or malformed action parameter.
// It is never retried and stays local to a single action.
type ValidationError struct {
	Type   ActionType
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: parameter %q %s", e.Type, e.Field, e.Reason)
}

// Params is the closed set of typed parameter shapes, one per action type.
// Parsing happens up front (normalize and dispatch time) instead of deep
// inside each handler.
type Params interface {
	actionParams()
}

type SearchKnowledgeParams struct {
	Query string
	Limit int
}

type ListDocumentsParams struct {
	Limit int
}

type GenerateEmbeddingsParams struct {
	Text string
}

type GetDocumentContentParams struct {
	DocumentID string
}

type RespondDirectlyParams struct {
	Text string
}

func (SearchKnowledgeParams) actionParams()    {}
func (ListDocumentsParams) actionParams()      {}
func (GenerateEmbeddingsParams) actionParams() {}
func (GetDocumentContentParams) actionParams() {}
func (RespondDirectlyParams) actionParams()    {}

// Default limits applied when the planner omits them
const (
	DefaultSearchLimit = 10
	DefaultListLimit   = 20
)

// ParseParams validates a.Parameters against the shape required by a.Type.
// Unknown action types and missing required fields yield a *ValidationError.
func ParseParams(a Action) (Params, error) {
	switch a.Type {
	case ActionSearchKnowledge:
		query := strings.TrimSpace(asString(a.Parameters["query"]))
		if query == "" {
			return nil, &ValidationError{Type: a.Type, Field: "query", Reason: "is required"}
		}
		return SearchKnowledgeParams{
			Query: query,
			Limit: asInt(a.Parameters["limit"], DefaultSearchLimit),
		}, nil

	case ActionListDocuments:
		return ListDocumentsParams{
			Limit: asInt(a.Parameters["limit"], DefaultListLimit),
		}, nil

	case ActionGenerateEmbeddings:
		text := asString(a.Parameters["text"])
		if strings.TrimSpace(text) == "" {
			return nil, &ValidationError{Type: a.Type, Field: "text", Reason: "is required"}
		}
		return GenerateEmbeddingsParams{Text: text}, nil

	case ActionGetDocumentContent:
		id := strings.TrimSpace(asString(a.Parameters["document_id"]))
		if id == "" {
			// Some planner outputs use "documentId"; accept both spellings.
			id = strings.TrimSpace(asString(a.Parameters["documentId"]))
		}
		if id == "" {
			return nil, &ValidationError{Type: a.Type, Field: "document_id", Reason: "is required"}
		}
		return GetDocumentContentParams{DocumentID: id}, nil

	case ActionRespondDirectly:
		text := asString(a.Parameters["text"])
		if text == "" {
			return nil, &ValidationError{Type: a.Type, Field: "text", Reason: "is required"}
		}
		return RespondDirectlyParams{Text: text}, nil

	default:
		return nil, &ValidationError{Type: a.Type, Field: "type", Reason: "is not a known action type"}
	}
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asInt(v interface{}, def int) int {
	switch x := v.(type) {
	case float64:
		if x <= 0 {
			return def
		}
		return int(x)
	case int:
		if x <= 0 {
			return def
		}
		return x
	case json.Number:
		i, err := x.Int64()
		if err != nil || i <= 0 {
			return def
		}
		return int(i)
	default:
		return def
	}
}
