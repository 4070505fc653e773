package planner

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"knowledge-chat-be/pkg/llm"
	"knowledge-chat-be/pkg/plan"
	"knowledge-chat-be/pkg/store"
)

type fakeLLM struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return f.response, f.err
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

func newTestPlanner(provider llm.LLMProvider) *Planner {
	return NewPlanner(provider, log.New(io.Discard, "", 0))
}

func TestPlanParsesWellFormedOutput(t *testing.T) {
	provider := &fakeLLM{response: `{
		"groups": [
			{"id": "search_group", "mode": "parallel", "priority": 1, "actions": [
				{"type": "search_knowledge", "parameters": {"query": "vacation policy"}, "priority": 1, "parallelizable": true}
			]}
		],
		"reasoning": "single retrieval",
		"can_proceed": true
	}`}

	p := newTestPlanner(provider)
	got := p.Plan(context.Background(), "what is the vacation policy?", nil, &store.Session{ID: "s1"})

	if got.Reasoning == plan.FallbackReasoning {
		t.Fatal("well-formed output degraded to fallback")
	}
	if len(got.Groups) != 1 || got.Groups[0].ID != "search_group" {
		t.Errorf("groups = %+v", got.Groups)
	}
	if got.Groups[0].Actions[0].Type != plan.ActionSearchKnowledge {
		t.Errorf("action type = %s", got.Groups[0].Actions[0].Type)
	}
}

func TestPlanExtractsJSONFromProse(t *testing.T) {
	provider := &fakeLLM{response: "Sure, here is the plan:\n```json\n" +
		`{"groups": [{"id": "g1", "mode": "sequential", "priority": 1, "actions": [{"type": "list_documents", "priority": 1}]}], "can_proceed": true}` +
		"\n```\nLet me know if that works."}

	p := newTestPlanner(provider)
	got := p.Plan(context.Background(), "list my documents", nil, nil)

	if got.Reasoning == plan.FallbackReasoning {
		t.Fatal("embedded JSON was not extracted")
	}
	if len(got.Groups) != 1 {
		t.Errorf("groups = %d, want 1", len(got.Groups))
	}
}

func TestPlanFallsBackOnGarbage(t *testing.T) {
	provider := &fakeLLM{response: "I am not sure what you mean."}

	p := newTestPlanner(provider)
	got := p.Plan(context.Background(), "???", nil, nil)

	if got.Reasoning != plan.FallbackReasoning {
		t.Errorf("expected fallback, got %+v", got)
	}
}

func TestPlanFallsBackOnProviderError(t *testing.T) {
	provider := &fakeLLM{err: errors.New("connection refused")}

	p := newTestPlanner(provider)
	got := p.Plan(context.Background(), "anything", nil, nil)

	if got.Reasoning != plan.FallbackReasoning {
		t.Errorf("expected fallback on provider error, got %+v", got)
	}
	if !got.CanProceed {
		t.Error("fallback plan must be executable")
	}
}

func TestPlanClarificationOutput(t *testing.T) {
	provider := &fakeLLM{response: `{
		"needs_clarification": true,
		"can_proceed": false,
		"clarification_questions": ["Which quarter do you mean?"]
	}`}

	p := newTestPlanner(provider)
	got := p.Plan(context.Background(), "show me the numbers", nil, nil)

	if !got.RequiresClarification() {
		t.Fatal("RequiresClarification() = false, want true")
	}
	if len(got.ClarificationQuestions) != 1 {
		t.Errorf("questions = %d, want 1", len(got.ClarificationQuestions))
	}
}

func TestPlanPromptCarriesSessionState(t *testing.T) {
	provider := &fakeLLM{response: `{"groups": [], "can_proceed": true}`}

	p := newTestPlanner(provider)
	session := &store.Session{
		ID:        "s1",
		LastQuery: "what about the deploy runbook?",
	}
	p.Plan(context.Background(), "and the rollback steps?", nil, session)

	if len(provider.prompts) != 1 {
		t.Fatalf("prompts = %d, want 1", len(provider.prompts))
	}
	prompt := provider.prompts[0]
	if !strings.Contains(prompt, "what about the deploy runbook?") {
		t.Error("prompt is missing the previous query from session state")
	}
	if !strings.Contains(prompt, "and the rollback steps?") {
		t.Error("prompt is missing the current query")
	}
}
