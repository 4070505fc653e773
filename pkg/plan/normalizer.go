package plan

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FallbackReasoning marks a plan that replaced unusable planner output
const FallbackReasoning = "plan parsing failed, using fallback"

const (
	fallbackApology = "Sorry, I couldn't work out how to handle that request. Could you rephrase it?"

	genericClarificationQuestion = "Could you clarify what you are looking for?"
)

// Fallback returns the safe single-action plan used whenever the planner
// output cannot be repaired: one respond_directly action carrying a generic
// apology, executable immediately.
func Fallback() *ActionPlan {
	return &ActionPlan{
		Groups: []ActionGroup{
			{
				ID:       "fallback",
				Mode:     ModeSequential,
				Priority: 1,
				Actions: []Action{
					{
						Type:       ActionRespondDirectly,
						Parameters: map[string]interface{}{"text": fallbackApology},
						Priority:   1,
					},
				},
			},
		},
		Reasoning:  FallbackReasoning,
		CanProceed: true,
	}
}

// NormalizeRaw unmarshals raw planner output and normalizes it.
// It never fails; undecodable input yields the fallback plan. A payload
// that omits the "groups" field entirely (as opposed to sending an empty
// list) is treated as structurally broken unless it is a clarification plan.
func NormalizeRaw(raw []byte) *ActionPlan {
	if len(raw) == 0 {
		return Fallback()
	}
	var probe struct {
		Groups *[]ActionGroup `json:"groups"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return Fallback()
	}
	var p ActionPlan
	if err := json.Unmarshal(raw, &p); err != nil {
		return Fallback()
	}
	if probe.Groups == nil && !p.NeedsClarification {
		return Fallback()
	}
	return Normalize(&p)
}

// Normalize validates and repairs a plan received from the planner.
// Repairable defects (missing group ids, zero priorities, empty mode) are
// fixed in place; structural defects (empty groups, unknown action types,
// invalid parameters, unknown modes) discard the input entirely and return
// the fallback plan. The clarification invariant is always applied: a plan
// that needs clarification carries at least one clarification question.
func Normalize(p *ActionPlan) *ActionPlan {
	if p == nil {
		return Fallback()
	}

	out := *p

	if out.NeedsClarification && len(out.ClarificationQuestions) == 0 {
		out.ClarificationQuestions = []string{genericClarificationQuestion}
	}

	// A clarification-gated plan is returned as-is: the executor treats its
	// groups as empty, so their contents need no structural validation.
	if out.RequiresClarification() {
		return &out
	}

	seen := make(map[string]bool, len(out.Groups))
	for i := range out.Groups {
		g := &out.Groups[i]

		if len(g.Actions) == 0 {
			return Fallback()
		}

		switch g.Mode {
		case ModeParallel, ModeSequential:
		case "":
			g.Mode = ModeSequential
		default:
			return Fallback()
		}

		if g.Priority < 1 {
			g.Priority = 1
		}

		g.ID = strings.TrimSpace(g.ID)
		if g.ID == "" {
			g.ID = fmt.Sprintf("group_%d", i+1)
		}
		for seen[g.ID] {
			g.ID = fmt.Sprintf("%s_%d", g.ID, i+1)
		}
		seen[g.ID] = true

		for j := range g.Actions {
			a := &g.Actions[j]
			if !KnownActionType(a.Type) {
				return Fallback()
			}
			if _, err := ParseParams(*a); err != nil {
				return Fallback()
			}
			if a.Priority < 1 {
				a.Priority = 1
			}
		}
	}

	return &out
}
