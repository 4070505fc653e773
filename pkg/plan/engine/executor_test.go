package engine

import (
	"context"
	"sync"
	"testing"

	"knowledge-chat-be/pkg/plan"
	"knowledge-chat-be/pkg/store"
)

// recordingSearcher notes the order queries arrive in.
type recordingSearcher struct {
	mu      sync.Mutex
	queries []string
}

func (r *recordingSearcher) Search(ctx context.Context, userID, query string, limit int) ([]store.SearchHit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, query)
	return nil, nil
}

func newTestPlanExecutor(collab Collaborators) *PlanExecutor {
	d := NewDispatcher(collab, testPolicy(), discardLogger())
	g := NewGroupExecutor(d, DefaultWorkerCap, discardLogger())
	return NewPlanExecutor(g, discardLogger())
}

func searchGroup(id string, priority int, query string) plan.ActionGroup {
	return plan.ActionGroup{
		ID:       id,
		Mode:     plan.ModeSequential,
		Priority: priority,
		Actions: []plan.Action{
			{Type: plan.ActionSearchKnowledge, Parameters: map[string]interface{}{"query": query}},
		},
	}
}

func TestExecuteRunsGroupsInPriorityOrder(t *testing.T) {
	searcher := &recordingSearcher{}
	e := newTestPlanExecutor(Collaborators{Searcher: searcher, Documents: &fakeDocuments{}, Embedder: &fakeEmbedder{}})

	p := &plan.ActionPlan{
		CanProceed: true,
		Groups: []plan.ActionGroup{
			searchGroup("late", 3, "third"),
			searchGroup("early", 1, "first"),
			searchGroup("mid", 2, "second"),
		},
	}

	records := e.Execute(context.Background(), "user-1", p)

	if len(records) != 3 {
		t.Fatalf("records = %d, want 3", len(records))
	}
	want := []string{"first", "second", "third"}
	for i, q := range want {
		if searcher.queries[i] != q {
			t.Errorf("queries[%d] = %q, want %q", i, searcher.queries[i], q)
		}
	}
}

func TestExecuteEqualPrioritiesKeepDeclarationOrder(t *testing.T) {
	searcher := &recordingSearcher{}
	e := newTestPlanExecutor(Collaborators{Searcher: searcher, Documents: &fakeDocuments{}, Embedder: &fakeEmbedder{}})

	p := &plan.ActionPlan{
		CanProceed: true,
		Groups: []plan.ActionGroup{
			searchGroup("a", 1, "first"),
			searchGroup("b", 1, "second"),
		},
	}

	e.Execute(context.Background(), "user-1", p)

	if searcher.queries[0] != "first" || searcher.queries[1] != "second" {
		t.Errorf("queries = %v, want declaration order", searcher.queries)
	}
}

func TestExecuteClarificationRunsNothing(t *testing.T) {
	searcher := &recordingSearcher{}
	e := newTestPlanExecutor(Collaborators{Searcher: searcher, Documents: &fakeDocuments{}, Embedder: &fakeEmbedder{}})

	p := &plan.ActionPlan{
		NeedsClarification:     true,
		CanProceed:             false,
		ClarificationQuestions: []string{"Which document?"},
		Groups:                 []plan.ActionGroup{searchGroup("g1", 1, "should not run")},
	}

	records := e.Execute(context.Background(), "user-1", p)

	if len(records) != 0 {
		t.Errorf("records = %d, want 0", len(records))
	}
	if len(searcher.queries) != 0 {
		t.Errorf("collaborator was called %d times during clarification", len(searcher.queries))
	}
}

func TestExecuteNilAndEmptyPlans(t *testing.T) {
	e := newTestPlanExecutor(Collaborators{Searcher: &fakeSearcher{}, Documents: &fakeDocuments{}, Embedder: &fakeEmbedder{}})

	if got := e.Execute(context.Background(), "user-1", nil); len(got) != 0 {
		t.Errorf("nil plan records = %d, want 0", len(got))
	}
	if got := e.Execute(context.Background(), "user-1", &plan.ActionPlan{CanProceed: true}); len(got) != 0 {
		t.Errorf("empty plan records = %d, want 0", len(got))
	}
}

func TestExecuteFailedGroupDoesNotStopLaterGroups(t *testing.T) {
	searcher := &fakeSearcher{failures: 100}
	e := newTestPlanExecutor(Collaborators{Searcher: searcher, Documents: &fakeDocuments{}, Embedder: &fakeEmbedder{}})

	p := &plan.ActionPlan{
		CanProceed: true,
		Groups: []plan.ActionGroup{
			searchGroup("doomed", 1, "unreachable"),
			{
				ID:       "rescue",
				Mode:     plan.ModeSequential,
				Priority: 2,
				Actions:  []plan.Action{respondAction("made it")},
			},
		},
	}

	records := e.Execute(context.Background(), "user-1", p)

	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if records["doomed"].Results[0].Succeeded {
		t.Error("doomed group should have failed")
	}
	if !records["rescue"].Results[0].Succeeded {
		t.Error("later group must still run after a failed group")
	}
}
