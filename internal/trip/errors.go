package trip

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the planning and booking surfaces. Callers branch on
// these with errors.Is to decide whether to resubmit, rephrase, or stop.
var (
	// ErrNotFound means the referenced plan id is unknown.
	ErrNotFound = errors.New("plan not found")

	// ErrInvalidState means a lifecycle transition was requested on a plan
	// that is not in the required state (e.g. confirming an expired plan).
	ErrInvalidState = errors.New("plan is not awaiting confirmation")

	// ErrUpstreamUnavailable means the reasoning backend or a tool adapter
	// failed after the allowed retries.
	ErrUpstreamUnavailable = errors.New("reasoning backend unavailable")
)

// ClarificationError is returned when the assembler cannot produce a valid
// plan within its round budget. The user must be re-prompted; the request
// is not retried automatically.
type ClarificationError struct {
	Question string
}

func (e *ClarificationError) Error() string {
	if e.Question == "" {
		return "clarification needed: request is underspecified"
	}
	return "clarification needed: " + e.Question
}

// ValidationError is returned when a finalize candidate still violates
// budget, availability, or structural invariants after the repair round.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("plan validation failed: %s", strings.Join(e.Violations, "; "))
}
