package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"knowledge-chat-be/pkg/plan"
	"knowledge-chat-be/pkg/retry"
)

// Dispatcher routes a single action to the collaborator that implements it
// and converts the outcome into a uniform ActionResult. Transient failures
// are retried under the configured policy; validation failures and
// rate-limit rejections are not.
type Dispatcher struct {
	collab Collaborators
	policy retry.Policy
	logger *log.Logger
}

func NewDispatcher(collab Collaborators, policy retry.Policy, logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Dispatcher{collab: collab, policy: policy, logger: logger}
}

// Dispatch executes one action on behalf of userID. It always returns a
// populated result; errors are folded into the result rather than returned.
func (d *Dispatcher) Dispatch(ctx context.Context, userID string, action plan.Action) plan.ActionResult {
	start := time.Now()
	result := plan.ActionResult{Type: action.Type}

	params, err := plan.ParseParams(action)
	if err != nil {
		d.logger.Printf("[WARN] action %s rejected: %v", action.Type, err)
		result.Error = err.Error()
		result.ElapsedSeconds = time.Since(start).Seconds()
		return result
	}

	var payload map[string]interface{}
	attempts, err := d.policy.Do(ctx, func(ctx context.Context) error {
		var opErr error
		payload, opErr = d.run(ctx, userID, params)
		if opErr == nil {
			return nil
		}
		if isPermanent(opErr) {
			return retry.Permanent(opErr)
		}
		return opErr
	})

	result.RetryCount = attempts - 1
	if result.RetryCount < 0 {
		result.RetryCount = 0
	}
	result.ElapsedSeconds = time.Since(start).Seconds()

	if err != nil {
		d.logger.Printf("[ERROR] action %s failed after %d attempt(s): %v", action.Type, attempts, err)
		result.Error = failureMessage(err)
		return result
	}

	result.Succeeded = true
	result.Payload = payload
	return result
}

// isPermanent reports whether err should short-circuit the retry schedule.
func isPermanent(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var verr *plan.ValidationError
	return errors.As(err, &verr)
}

func (d *Dispatcher) run(ctx context.Context, userID string, params plan.Params) (map[string]interface{}, error) {
	switch p := params.(type) {
	case plan.SearchKnowledgeParams:
		hits, err := d.collab.Searcher.Search(ctx, userID, p.Query, p.Limit)
		if err != nil {
			return nil, &ExternalServiceError{Service: "knowledge search", Err: err}
		}
		return map[string]interface{}{
			"query": p.Query,
			"hits":  hits,
			"count": len(hits),
		}, nil

	case plan.ListDocumentsParams:
		docs, err := d.collab.Documents.ListDocuments(ctx, userID, p.Limit)
		if err != nil {
			return nil, &ExternalServiceError{Service: "document store", Err: err}
		}
		return map[string]interface{}{
			"documents": docs,
			"count":     len(docs),
		}, nil

	case plan.GenerateEmbeddingsParams:
		vec, err := d.collab.Embedder.Embed(ctx, p.Text)
		if err != nil {
			return nil, &ExternalServiceError{Service: "embedding provider", Err: err}
		}
		return map[string]interface{}{
			"embedding":  vec,
			"dimensions": len(vec),
		}, nil

	case plan.GetDocumentContentParams:
		content, err := d.collab.Documents.GetDocumentContent(ctx, userID, p.DocumentID)
		if err != nil {
			return nil, &ExternalServiceError{Service: "document store", Err: err}
		}
		return map[string]interface{}{
			"document_id": p.DocumentID,
			"content":     content,
		}, nil

	case plan.RespondDirectlyParams:
		// No external call: the text is handed straight to synthesis.
		return map[string]interface{}{"text": p.Text}, nil

	default:
		return nil, fmt.Errorf("no handler for params type %T", params)
	}
}
