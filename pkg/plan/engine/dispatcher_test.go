package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"knowledge-chat-be/pkg/plan"
	"knowledge-chat-be/pkg/retry"
	"knowledge-chat-be/pkg/store"
)

type fakeSearcher struct {
	mu       sync.Mutex
	calls    int
	failures int // fail this many calls before succeeding
	err      error
	hits     []store.SearchHit
}

func (f *fakeSearcher) Search(ctx context.Context, userID, query string, limit int) ([]store.SearchHit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.calls <= f.failures {
		return nil, errors.New("connection reset")
	}
	return f.hits, nil
}

type fakeDocuments struct {
	mu    sync.Mutex
	calls int
	docs  []store.DocumentSummary
	body  string
	err   error
}

func (f *fakeDocuments) ListDocuments(ctx context.Context, userID string, limit int) ([]store.DocumentSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if limit > 0 && limit < len(f.docs) {
		return f.docs[:limit], nil
	}
	return f.docs, nil
}

func (f *fakeDocuments) GetDocumentContent(ctx context.Context, userID, documentID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.body, nil
}

type fakeEmbedder struct {
	vec []float32
	err error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vec, nil
}

func testPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		CapDelay:    5 * time.Millisecond,
	}
}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func newTestDispatcher(collab Collaborators) *Dispatcher {
	return NewDispatcher(collab, testPolicy(), discardLogger())
}

func TestDispatchValidationFailureSkipsCollaborators(t *testing.T) {
	searcher := &fakeSearcher{}
	d := newTestDispatcher(Collaborators{Searcher: searcher, Documents: &fakeDocuments{}, Embedder: &fakeEmbedder{}})

	result := d.Dispatch(context.Background(), "user-1", plan.Action{
		Type:       plan.ActionSearchKnowledge,
		Parameters: map[string]interface{}{"query": ""},
	})

	if result.Succeeded {
		t.Fatal("expected failure for missing query")
	}
	if searcher.calls != 0 {
		t.Errorf("collaborator called %d times, want 0", searcher.calls)
	}
	if result.RetryCount != 0 {
		t.Errorf("RetryCount = %d, want 0", result.RetryCount)
	}
	if result.Error == "" {
		t.Error("Error must be populated on validation failure")
	}
}

func TestDispatchRespondDirectly(t *testing.T) {
	d := newTestDispatcher(Collaborators{Searcher: &fakeSearcher{}, Documents: &fakeDocuments{}, Embedder: &fakeEmbedder{}})

	result := d.Dispatch(context.Background(), "user-1", plan.Action{
		Type:       plan.ActionRespondDirectly,
		Parameters: map[string]interface{}{"text": "You're welcome!"},
	})

	if !result.Succeeded {
		t.Fatalf("unexpected failure: %s", result.Error)
	}
	if result.Payload["text"] != "You're welcome!" {
		t.Errorf("payload text = %v", result.Payload["text"])
	}
}

func TestDispatchSearchSuccess(t *testing.T) {
	searcher := &fakeSearcher{hits: []store.SearchHit{{ID: "d1", Title: "Runbook"}}}
	d := newTestDispatcher(Collaborators{Searcher: searcher, Documents: &fakeDocuments{}, Embedder: &fakeEmbedder{}})

	result := d.Dispatch(context.Background(), "user-1", plan.Action{
		Type:       plan.ActionSearchKnowledge,
		Parameters: map[string]interface{}{"query": "runbook"},
	})

	if !result.Succeeded {
		t.Fatalf("unexpected failure: %s", result.Error)
	}
	if result.Payload["count"] != 1 {
		t.Errorf("count = %v, want 1", result.Payload["count"])
	}
}

func TestDispatchRetriesTransientFailure(t *testing.T) {
	searcher := &fakeSearcher{failures: 2, hits: []store.SearchHit{{ID: "d1"}}}
	d := newTestDispatcher(Collaborators{Searcher: searcher, Documents: &fakeDocuments{}, Embedder: &fakeEmbedder{}})

	result := d.Dispatch(context.Background(), "user-1", plan.Action{
		Type:       plan.ActionSearchKnowledge,
		Parameters: map[string]interface{}{"query": "runbook"},
	})

	if !result.Succeeded {
		t.Fatalf("unexpected failure: %s", result.Error)
	}
	if searcher.calls != 3 {
		t.Errorf("calls = %d, want 3", searcher.calls)
	}
	if result.RetryCount != 2 {
		t.Errorf("RetryCount = %d, want 2", result.RetryCount)
	}
}

func TestDispatchExhaustsRetries(t *testing.T) {
	searcher := &fakeSearcher{failures: 10}
	d := newTestDispatcher(Collaborators{Searcher: searcher, Documents: &fakeDocuments{}, Embedder: &fakeEmbedder{}})

	result := d.Dispatch(context.Background(), "user-1", plan.Action{
		Type:       plan.ActionSearchKnowledge,
		Parameters: map[string]interface{}{"query": "runbook"},
	})

	if result.Succeeded {
		t.Fatal("expected failure after exhausting retries")
	}
	if searcher.calls != 3 {
		t.Errorf("calls = %d, want 3", searcher.calls)
	}
	if result.RetryCount != 2 {
		t.Errorf("RetryCount = %d, want 2", result.RetryCount)
	}
	if result.ElapsedSeconds <= 0 {
		t.Error("ElapsedSeconds must be set on failure")
	}
}

func TestDispatchRateLimitShortCircuits(t *testing.T) {
	searcher := &fakeSearcher{err: fmt.Errorf("knowledge search: %w", ErrRateLimited)}
	d := newTestDispatcher(Collaborators{Searcher: searcher, Documents: &fakeDocuments{}, Embedder: &fakeEmbedder{}})

	result := d.Dispatch(context.Background(), "user-1", plan.Action{
		Type:       plan.ActionSearchKnowledge,
		Parameters: map[string]interface{}{"query": "runbook"},
	})

	if result.Succeeded {
		t.Fatal("expected failure on rate limit")
	}
	if searcher.calls != 1 {
		t.Errorf("calls = %d, want 1 (rate limits are not retried)", searcher.calls)
	}
	if result.Error != rateLimitedMessage {
		t.Errorf("Error = %q, want the calm rate-limit message", result.Error)
	}
}
