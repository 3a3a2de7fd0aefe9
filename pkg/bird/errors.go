package bird

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedResponse matches any reply that breaks the reaction contract.
	ErrMalformedResponse = errors.New("malformed model response")
	// ErrUpstream matches failures of the model service call itself.
	ErrUpstream = errors.New("model service failure")
	// ErrInputIgnored is returned for turns with nothing to react to.
	ErrInputIgnored = errors.New("empty input ignored")
	ErrInvalidTurn  = errors.New("invalid turn")
)

// MalformedResponseError keeps the raw model text for diagnostics.
type MalformedResponseError struct {
	Raw    string
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("model returned non-JSON response (%s): %s", e.Reason, e.Raw)
}

func (e *MalformedResponseError) Is(target error) bool {
	return target == ErrMalformedResponse
}

// UpstreamError wraps a failed model call.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("model service call failed: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}
