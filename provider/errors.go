package provider

import (
	"context"
	"errors"
	"fmt"
)

// Failure kinds surfaced to the panel. The panel renders err.Error()
// verbatim, so messages here are the user-facing diagnostics.
var (
	// ErrMissingCredential means a call was attempted without an API key.
	// Checked before any network activity.
	ErrMissingCredential = errors.New("missing API key: set one in the chat panel or run onboard")

	// ErrMalformedResponse means the backend answered 2xx but the reply
	// carried no usable message content.
	ErrMalformedResponse = errors.New("malformed response: no message content")

	// ErrTimeout means the configured request deadline elapsed.
	ErrTimeout = errors.New("request timed out")

	// ErrCancelled means the request context was cancelled.
	ErrCancelled = errors.New("request cancelled")
)

// BackendError is a non-2xx HTTP response from the chat backend.
type BackendError struct {
	StatusCode int
	Status     string // e.g. "401 Unauthorized"
	Body       string // raw response body, best-effort
}

func (e *BackendError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("chat backend error: %s", e.Status)
	}
	return fmt.Sprintf("chat backend error: %s %s", e.Status, e.Body)
}

// ctxError maps context termination onto the failure taxonomy, or returns
// nil when the context is still live.
func ctxError(ctx context.Context) error {
	switch ctx.Err() {
	case context.DeadlineExceeded:
		return ErrTimeout
	case context.Canceled:
		return ErrCancelled
	}
	return nil
}
