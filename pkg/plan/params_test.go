package plan

import (
	"errors"
	"testing"
)

func TestParseParams(t *testing.T) {
	tests := []struct {
		name      string
		action    Action
		want      Params
		wantField string // non-empty means a *ValidationError on this field
	}{
		{
			name: "search with query and limit",
			action: Action{
				Type:       ActionSearchKnowledge,
				Parameters: map[string]interface{}{"query": "deploy checklist", "limit": float64(5)},
			},
			want: SearchKnowledgeParams{Query: "deploy checklist", Limit: 5},
		},
		{
			name: "search applies default limit",
			action: Action{
				Type:       ActionSearchKnowledge,
				Parameters: map[string]interface{}{"query": "deploy checklist"},
			},
			want: SearchKnowledgeParams{Query: "deploy checklist", Limit: DefaultSearchLimit},
		},
		{
			name: "search rejects blank query",
			action: Action{
				Type:       ActionSearchKnowledge,
				Parameters: map[string]interface{}{"query": "   "},
			},
			wantField: "query",
		},
		{
			name: "search rejects missing query",
			action: Action{
				Type:       ActionSearchKnowledge,
				Parameters: map[string]interface{}{},
			},
			wantField: "query",
		},
		{
			name: "list documents needs no parameters",
			action: Action{
				Type: ActionListDocuments,
			},
			want: ListDocumentsParams{Limit: DefaultListLimit},
		},
		{
			name: "list documents ignores non-positive limit",
			action: Action{
				Type:       ActionListDocuments,
				Parameters: map[string]interface{}{"limit": float64(-3)},
			},
			want: ListDocumentsParams{Limit: DefaultListLimit},
		},
		{
			name: "generate embeddings requires text",
			action: Action{
				Type:       ActionGenerateEmbeddings,
				Parameters: map[string]interface{}{"text": ""},
			},
			wantField: "text",
		},
		{
			name: "get document content snake case",
			action: Action{
				Type:       ActionGetDocumentContent,
				Parameters: map[string]interface{}{"document_id": "doc-1"},
			},
			want: GetDocumentContentParams{DocumentID: "doc-1"},
		},
		{
			name: "get document content camel case",
			action: Action{
				Type:       ActionGetDocumentContent,
				Parameters: map[string]interface{}{"documentId": "doc-2"},
			},
			want: GetDocumentContentParams{DocumentID: "doc-2"},
		},
		{
			name: "get document content missing id",
			action: Action{
				Type:       ActionGetDocumentContent,
				Parameters: map[string]interface{}{},
			},
			wantField: "document_id",
		},
		{
			name: "respond directly requires text",
			action: Action{
				Type:       ActionRespondDirectly,
				Parameters: map[string]interface{}{},
			},
			wantField: "text",
		},
		{
			name: "unknown action type",
			action: Action{
				Type: ActionType("launch_rocket"),
			},
			wantField: "type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseParams(tt.action)

			if tt.wantField != "" {
				var verr *ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("expected *ValidationError, got %v", err)
				}
				if verr.Field != tt.wantField {
					t.Errorf("Field = %q, want %q", verr.Field, tt.wantField)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("params = %#v, want %#v", got, tt.want)
			}
		})
	}
}
