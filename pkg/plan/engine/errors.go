package engine

import (
	"errors"
	"fmt"
)

// ErrRateLimited is returned by collaborators when an upstream provider
// rejects the call for quota reasons. It is never retried.
var ErrRateLimited = errors.New("upstream rate limit exceeded")

// rateLimitedMessage is the calmer user-facing text substituted for a
// rate-limited action failure.
const rateLimitedMessage = "The service is receiving too many requests right now. Please try again in a moment."

// ExternalServiceError wraps a failure from an external collaborator so the
// dispatcher can report which dependency misbehaved.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

// failureMessage maps an action error onto the string stored in the result
// bundle. Rate-limit failures get a softer message than the raw error text.
func failureMessage(err error) string {
	if errors.Is(err, ErrRateLimited) {
		return rateLimitedMessage
	}
	return err.Error()
}
