package engine

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"knowledge-chat-be/pkg/plan"
)

// DefaultWorkerCap bounds how many actions of a parallel group run at once.
const DefaultWorkerCap = 5

// GroupExecutor runs every action of one group through the dispatcher.
// Execution is fail-soft: a failed action never stops its siblings, and the
// returned slice always matches the group's action list in length and order.
type GroupExecutor struct {
	dispatcher *Dispatcher
	workerCap  int
	logger     *log.Logger
}

func NewGroupExecutor(dispatcher *Dispatcher, workerCap int, logger *log.Logger) *GroupExecutor {
	if workerCap <= 0 {
		workerCap = DefaultWorkerCap
	}
	if logger == nil {
		logger = log.Default()
	}
	return &GroupExecutor{dispatcher: dispatcher, workerCap: workerCap, logger: logger}
}

// Run executes the group's actions in its declared mode and returns one
// result per action, in input order.
func (g *GroupExecutor) Run(ctx context.Context, userID string, group plan.ActionGroup) []plan.ActionResult {
	results := make([]plan.ActionResult, len(group.Actions))

	if group.Mode == plan.ModeParallel && len(group.Actions) > 1 {
		limit := g.workerCap
		if len(group.Actions) < limit {
			limit = len(group.Actions)
		}

		eg, gctx := errgroup.WithContext(ctx)
		eg.SetLimit(limit)
		for i, action := range group.Actions {
			i, action := i, action
			eg.Go(func() error {
				results[i] = g.safeDispatch(gctx, userID, action)
				return nil
			})
		}
		// Workers never return errors; failures live inside the results.
		_ = eg.Wait()
		return results
	}

	for i, action := range group.Actions {
		results[i] = g.safeDispatch(ctx, userID, action)
	}
	return results
}

// safeDispatch isolates a panicking action so it surfaces as a failed result
// instead of taking down the whole group.
func (g *GroupExecutor) safeDispatch(ctx context.Context, userID string, action plan.Action) (result plan.ActionResult) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Printf("[ERROR] action %s panicked: %v", action.Type, r)
			result = plan.ActionResult{
				Type:  action.Type,
				Error: fmt.Sprintf("internal error: %v", r),
			}
		}
	}()
	return g.dispatcher.Dispatch(ctx, userID, action)
}
