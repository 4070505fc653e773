package plan

import "testing"

func isFallback(p *ActionPlan) bool {
	return p.Reasoning == FallbackReasoning
}

func TestNormalizeRawStructuralDefects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty input", raw: ""},
		{name: "not json", raw: "sure! here is your plan"},
		{name: "missing groups key", raw: `{"reasoning": "no work needed"}`},
		{name: "group without actions", raw: `{"groups": [{"id": "g1", "actions": [], "mode": "sequential", "priority": 1}]}`},
		{name: "unknown mode", raw: `{"groups": [{"id": "g1", "mode": "round_robin", "priority": 1, "actions": [{"type": "list_documents", "priority": 1}]}]}`},
		{name: "unknown action type", raw: `{"groups": [{"id": "g1", "mode": "sequential", "priority": 1, "actions": [{"type": "delete_everything", "priority": 1}]}]}`},
		{name: "missing required parameter", raw: `{"groups": [{"id": "g1", "mode": "sequential", "priority": 1, "actions": [{"type": "search_knowledge", "parameters": {}, "priority": 1}]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeRaw([]byte(tt.raw))
			if !isFallback(got) {
				t.Errorf("expected fallback plan, got %+v", got)
			}
			if len(got.Groups) != 1 || len(got.Groups[0].Actions) != 1 {
				t.Errorf("fallback must carry exactly one action")
			}
			if got.Groups[0].Actions[0].Type != ActionRespondDirectly {
				t.Errorf("fallback action type = %s, want %s", got.Groups[0].Actions[0].Type, ActionRespondDirectly)
			}
			if !got.CanProceed {
				t.Errorf("fallback must be executable immediately")
			}
		})
	}
}

func TestNormalizeRawExplicitEmptyGroups(t *testing.T) {
	got := NormalizeRaw([]byte(`{"groups": [], "reasoning": "nothing to do"}`))
	if isFallback(got) {
		t.Fatalf("explicit empty group list must not degrade to fallback")
	}
	if len(got.Groups) != 0 {
		t.Errorf("Groups = %d, want 0", len(got.Groups))
	}
}

func TestNormalizeRawRepairs(t *testing.T) {
	raw := `{
		"groups": [
			{"id": "  ", "priority": 0, "actions": [{"type": "list_documents"}]},
			{"id": "dup", "mode": "parallel", "priority": 2, "actions": [{"type": "respond_directly", "parameters": {"text": "hi"}}]},
			{"id": "dup", "mode": "sequential", "priority": 3, "actions": [{"type": "list_documents", "priority": -1}]}
		]
	}`

	got := NormalizeRaw([]byte(raw))
	if isFallback(got) {
		t.Fatalf("repairable plan degraded to fallback")
	}

	g := got.Groups
	if g[0].Mode != ModeSequential {
		t.Errorf("blank mode = %q, want sequential", g[0].Mode)
	}
	if g[0].Priority != 1 {
		t.Errorf("zero priority = %d, want 1", g[0].Priority)
	}
	if g[0].ID != "group_1" {
		t.Errorf("blank id = %q, want group_1", g[0].ID)
	}
	if g[1].ID == g[2].ID {
		t.Errorf("duplicate ids not disambiguated: %q", g[2].ID)
	}
	if g[2].Actions[0].Priority != 1 {
		t.Errorf("negative action priority = %d, want 1", g[2].Actions[0].Priority)
	}
}

func TestNormalizeRawClarification(t *testing.T) {
	t.Run("clarification skips group validation", func(t *testing.T) {
		raw := `{"needs_clarification": true, "can_proceed": false, "clarification_questions": ["Which project?"]}`
		got := NormalizeRaw([]byte(raw))
		if isFallback(got) {
			t.Fatalf("clarification plan degraded to fallback")
		}
		if !got.RequiresClarification() {
			t.Errorf("RequiresClarification() = false, want true")
		}
	})

	t.Run("clarification without questions gets a generic one", func(t *testing.T) {
		raw := `{"needs_clarification": true, "can_proceed": false}`
		got := NormalizeRaw([]byte(raw))
		if len(got.ClarificationQuestions) != 1 {
			t.Fatalf("ClarificationQuestions = %d, want 1", len(got.ClarificationQuestions))
		}
	})

	t.Run("clarification with can_proceed keeps groups executable", func(t *testing.T) {
		raw := `{"needs_clarification": true, "can_proceed": true, "groups": [{"id": "g1", "mode": "sequential", "priority": 1, "actions": [{"type": "list_documents"}]}]}`
		got := NormalizeRaw([]byte(raw))
		if got.RequiresClarification() {
			t.Errorf("can_proceed=true must not gate execution")
		}
		if len(got.Groups) != 1 {
			t.Errorf("Groups = %d, want 1", len(got.Groups))
		}
	})
}
