package engine

import (
	"context"
	"log"
	"sort"

	"knowledge-chat-be/pkg/plan"
)

// GroupExecutionRecord captures everything the engine learned from running
// one group.
type GroupExecutionRecord struct {
	Mode        plan.GroupMode      `json:"mode"`
	Context     string              `json:"context,omitempty"`
	Results     []plan.ActionResult `json:"results"`
	ResultCount int                 `json:"result_count"`
}

// PlanExecutor walks a normalized plan group by group. Groups run strictly
// one after another in ascending priority order (declaration order breaks
// ties); a group full of failures does not stop the groups after it.
type PlanExecutor struct {
	groups *GroupExecutor
	logger *log.Logger
}

func NewPlanExecutor(groups *GroupExecutor, logger *log.Logger) *PlanExecutor {
	if logger == nil {
		logger = log.Default()
	}
	return &PlanExecutor{groups: groups, logger: logger}
}

// Execute runs the plan and returns the per-group records keyed by group id.
// A plan gated on clarification executes nothing and returns an empty map,
// as does a plan with no groups.
func (e *PlanExecutor) Execute(ctx context.Context, userID string, p *plan.ActionPlan) map[string]GroupExecutionRecord {
	records := make(map[string]GroupExecutionRecord)

	if p == nil || p.RequiresClarification() || len(p.Groups) == 0 {
		return records
	}

	ordered := make([]plan.ActionGroup, len(p.Groups))
	copy(ordered, p.Groups)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	for _, group := range ordered {
		e.logger.Printf("[INFO] executing group %s (%s, %d action(s))", group.ID, group.Mode, len(group.Actions))
		results := e.groups.Run(ctx, userID, group)
		records[group.ID] = GroupExecutionRecord{
			Mode:        group.Mode,
			Context:     group.Context,
			Results:     results,
			ResultCount: len(results),
		}
	}

	return records
}
