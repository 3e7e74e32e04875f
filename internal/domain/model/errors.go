package model

import "fmt"

// AuthenticationError signals a provider credential or token failure.
// Retryable after re-authentication; never retried within a single pull.
type AuthenticationError struct {
	Bureau Bureau
	Reason string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("%s authentication failed: %s", e.Bureau, e.Reason)
}

// UpstreamError signals a network failure, timeout, or non-success response
// from a provider. Not retried within a pull; callers may re-invoke.
type UpstreamError struct {
	Bureau Bureau
	Status int // HTTP status when applicable; 0 for transport errors.
	Reason string
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s upstream error (status %d): %s", e.Bureau, e.Status, e.Reason)
	}
	return fmt.Sprintf("%s upstream error: %s", e.Bureau, e.Reason)
}

// NormalizationError signals a structurally malformed provider payload.
// Not retryable; indicates a provider contract change.
type NormalizationError struct {
	Bureau Bureau
	Reason string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("cannot normalize %s payload: %s", e.Bureau, e.Reason)
}

// NotFoundError signals an unknown entity, most commonly an unknown subject.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}
