package catalog

import (
	"errors"
	"fmt"
)

// UpstreamError wraps a provider failure. The relay never masks these with
// stale data; callers surface them so the panel retries later.
type UpstreamError struct {
	Op  string // What was being fetched
	Err error  // Underlying transport or decode error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// ErrorType returns the class of the root cause for the error_type
// diagnostic field, e.g. "url.Error" or "net.OpError".
func (e *UpstreamError) ErrorType() string {
	cause := error(e.Err)
	for {
		next := errors.Unwrap(cause)
		if next == nil {
			break
		}
		cause = next
	}
	t := fmt.Sprintf("%T", cause)
	if len(t) > 0 && t[0] == '*' {
		t = t[1:]
	}
	return t
}
