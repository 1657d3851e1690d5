package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout is returned when the backend does not answer within the call budget.
	ErrTimeout = errors.New("generation timed out")

	// ErrMalformedEnvelope is returned when a success response lacks a message or its content.
	ErrMalformedEnvelope = errors.New("malformed upstream envelope")
)

// UpstreamError is a non-success status reported by the generation backend.
type UpstreamError struct {
	Provider string
	Status   int
	Body     string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s API error (%d): %s", e.Provider, e.Status, e.Body)
}

// Retryable reports whether a later identical call could succeed.
func (e *UpstreamError) Retryable() bool {
	return e.Status == 408 || e.Status == 429 || e.Status >= 500
}
