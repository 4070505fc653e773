package synthesis

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"knowledge-chat-be/pkg/llm"
	"knowledge-chat-be/pkg/plan"
	"knowledge-chat-be/pkg/plan/engine"
)

type fakeLLM struct {
	response string
	err      error
	history  []llm.Message
	calls    int
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	f.calls++
	f.history = history
	return f.response, f.err
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	f.calls++
	return f.response, f.err
}

func newTestSynthesizer(provider llm.LLMProvider) *Synthesizer {
	return NewSynthesizer(provider, log.New(io.Discard, "", 0))
}

func bundleOf(records map[string]engine.GroupExecutionRecord) engine.ResultBundle {
	return engine.Aggregate(records)
}

func TestSynthesizeClarificationShortCircuits(t *testing.T) {
	provider := &fakeLLM{}
	s := newTestSynthesizer(provider)

	p := &plan.ActionPlan{
		NeedsClarification:     true,
		CanProceed:             false,
		ClarificationQuestions: []string{"Which report?"},
	}

	got := s.Synthesize(context.Background(), "show it to me", p, engine.ResultBundle{}, nil)

	if got != "Which report?" {
		t.Errorf("reply = %q, want the clarification question", got)
	}
	if provider.calls != 0 {
		t.Errorf("LLM called %d times for a clarification plan, want 0", provider.calls)
	}
}

func TestSynthesizeDirectResponseSkipsLLM(t *testing.T) {
	provider := &fakeLLM{}
	s := newTestSynthesizer(provider)

	bundle := bundleOf(map[string]engine.GroupExecutionRecord{
		"g1": {
			Results: []plan.ActionResult{
				{Type: plan.ActionRespondDirectly, Succeeded: true, Payload: map[string]interface{}{"text": "You're welcome!"}},
			},
		},
	})

	got := s.Synthesize(context.Background(), "thanks!", &plan.ActionPlan{CanProceed: true}, bundle, nil)

	if got != "You're welcome!" {
		t.Errorf("reply = %q, want the direct response text", got)
	}
	if provider.calls != 0 {
		t.Errorf("LLM called %d times for a direct response, want 0", provider.calls)
	}
}

func TestSynthesizeAllFailedSummarizesReasons(t *testing.T) {
	provider := &fakeLLM{}
	s := newTestSynthesizer(provider)

	bundle := bundleOf(map[string]engine.GroupExecutionRecord{
		"g1": {
			Results: []plan.ActionResult{
				{Type: plan.ActionSearchKnowledge, Error: "knowledge search: timeout"},
				{Type: plan.ActionListDocuments, Error: "knowledge search: timeout"},
			},
		},
	})

	got := s.Synthesize(context.Background(), "find stuff", &plan.ActionPlan{CanProceed: true}, bundle, nil)

	if !strings.Contains(got, "knowledge search: timeout") {
		t.Errorf("reply = %q, want the failure reason", got)
	}
	if strings.Count(got, "knowledge search: timeout") != 1 {
		t.Errorf("duplicate failure reasons must be collapsed: %q", got)
	}
	if provider.calls != 0 {
		t.Errorf("LLM called %d times when nothing succeeded, want 0", provider.calls)
	}
}

func TestSynthesizeGroundsPromptInResults(t *testing.T) {
	provider := &fakeLLM{response: "According to the runbook, restart the pods."}
	s := newTestSynthesizer(provider)

	bundle := bundleOf(map[string]engine.GroupExecutionRecord{
		"g1": {
			Results: []plan.ActionResult{
				{
					Type:      plan.ActionSearchKnowledge,
					Succeeded: true,
					Payload:   map[string]interface{}{"query": "restart", "hits": []string{"Runbook"}, "count": 1},
				},
				{Type: plan.ActionListDocuments, Error: "document store: timeout"},
			},
		},
	})

	got := s.Synthesize(context.Background(), "how do I restart?", &plan.ActionPlan{CanProceed: true}, bundle, nil)

	if got != "According to the runbook, restart the pods." {
		t.Errorf("reply = %q", got)
	}
	if provider.calls != 1 {
		t.Fatalf("LLM calls = %d, want 1", provider.calls)
	}

	prompt := provider.history[len(provider.history)-1].Content
	if !strings.Contains(prompt, "grounded_reference_material") {
		t.Error("prompt is missing the grounding section")
	}
	if !strings.Contains(prompt, "FAILED: document store: timeout") {
		t.Error("prompt must surface failed actions")
	}
	if !strings.Contains(prompt, "how do I restart?") {
		t.Error("prompt is missing the user question")
	}
}

func TestSynthesizeLLMErrorYieldsSafeMessage(t *testing.T) {
	provider := &fakeLLM{err: errors.New("connection refused")}
	s := newTestSynthesizer(provider)

	bundle := bundleOf(map[string]engine.GroupExecutionRecord{
		"g1": {
			Results: []plan.ActionResult{
				{Type: plan.ActionSearchKnowledge, Succeeded: true, Payload: map[string]interface{}{"count": 0}},
			},
		},
	})

	got := s.Synthesize(context.Background(), "anything", &plan.ActionPlan{CanProceed: true}, bundle, nil)

	if got != errorMessage {
		t.Errorf("reply = %q, want %q", got, errorMessage)
	}
}

func TestClarificationMessageFormatsMultipleQuestions(t *testing.T) {
	p := &plan.ActionPlan{
		ClarificationQuestions: []string{"Which project?", "Which environment?"},
	}

	got := ClarificationMessage(p)

	if !strings.Contains(got, "1. Which project?") || !strings.Contains(got, "2. Which environment?") {
		t.Errorf("message = %q, want a numbered list", got)
	}
}
