package engine

import (
	"context"
	"testing"

	"knowledge-chat-be/pkg/plan"
	"knowledge-chat-be/pkg/store"
)

type panickingSearcher struct{}

func (panickingSearcher) Search(ctx context.Context, userID, query string, limit int) ([]store.SearchHit, error) {
	panic("index corrupted")
}

func respondAction(text string) plan.Action {
	return plan.Action{
		Type:       plan.ActionRespondDirectly,
		Parameters: map[string]interface{}{"text": text},
	}
}

func TestGroupRunSequentialPreservesOrder(t *testing.T) {
	d := newTestDispatcher(Collaborators{Searcher: &fakeSearcher{}, Documents: &fakeDocuments{}, Embedder: &fakeEmbedder{}})
	g := NewGroupExecutor(d, DefaultWorkerCap, discardLogger())

	group := plan.ActionGroup{
		ID:      "g1",
		Mode:    plan.ModeSequential,
		Actions: []plan.Action{respondAction("first"), respondAction("second"), respondAction("third")},
	}

	results := g.Run(context.Background(), "user-1", group)

	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	for i, want := range []string{"first", "second", "third"} {
		if results[i].Payload["text"] != want {
			t.Errorf("results[%d] = %v, want %q", i, results[i].Payload["text"], want)
		}
	}
}

func TestGroupRunParallelResultsMatchInputOrder(t *testing.T) {
	d := newTestDispatcher(Collaborators{Searcher: &fakeSearcher{}, Documents: &fakeDocuments{}, Embedder: &fakeEmbedder{}})
	g := NewGroupExecutor(d, 2, discardLogger())

	actions := make([]plan.Action, 8)
	for i := range actions {
		actions[i] = respondAction(string(rune('a' + i)))
	}
	group := plan.ActionGroup{ID: "g1", Mode: plan.ModeParallel, Actions: actions}

	results := g.Run(context.Background(), "user-1", group)

	if len(results) != len(actions) {
		t.Fatalf("results = %d, want %d", len(results), len(actions))
	}
	for i := range actions {
		want := string(rune('a' + i))
		if results[i].Payload["text"] != want {
			t.Errorf("results[%d] = %v, want %q", i, results[i].Payload["text"], want)
		}
	}
}

func TestGroupRunFailSoft(t *testing.T) {
	searcher := &fakeSearcher{failures: 10}
	d := newTestDispatcher(Collaborators{Searcher: searcher, Documents: &fakeDocuments{}, Embedder: &fakeEmbedder{}})
	g := NewGroupExecutor(d, DefaultWorkerCap, discardLogger())

	group := plan.ActionGroup{
		ID:   "g1",
		Mode: plan.ModeSequential,
		Actions: []plan.Action{
			{Type: plan.ActionSearchKnowledge, Parameters: map[string]interface{}{"query": "doomed"}},
			respondAction("still here"),
		},
	}

	results := g.Run(context.Background(), "user-1", group)

	if results[0].Succeeded {
		t.Error("first action should have failed")
	}
	if !results[1].Succeeded {
		t.Errorf("second action must run despite the first failing: %s", results[1].Error)
	}
}

func TestGroupRunPanicIsolation(t *testing.T) {
	d := newTestDispatcher(Collaborators{Searcher: panickingSearcher{}, Documents: &fakeDocuments{}, Embedder: &fakeEmbedder{}})
	g := NewGroupExecutor(d, DefaultWorkerCap, discardLogger())

	group := plan.ActionGroup{
		ID:   "g1",
		Mode: plan.ModeParallel,
		Actions: []plan.Action{
			{Type: plan.ActionSearchKnowledge, Parameters: map[string]interface{}{"query": "boom"}},
			respondAction("survivor"),
		},
	}

	results := g.Run(context.Background(), "user-1", group)

	if results[0].Succeeded {
		t.Error("panicking action must surface as a failure")
	}
	if results[0].Error == "" {
		t.Error("panicking action must carry an error message")
	}
	if !results[1].Succeeded {
		t.Errorf("sibling action must survive a panic: %s", results[1].Error)
	}
}
