package client

import (
	"errors"
	"fmt"
)

// Common errors returned by the client.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled")

	// ErrMalformedListing is returned when the listing response has no results.
	ErrMalformedListing = errors.New("malformed listing response")
)

// ErrorClass represents a classification of upstream failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors other than 404.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 responses.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents connection-level failures.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassTimeout represents deadline expiry or cancellation.
	ErrorClassTimeout ErrorClass = "timeout"

	// ErrorClassDecode represents a response body that could not be decoded.
	ErrorClassDecode ErrorClass = "decode"

	// ErrorClassCircuitOpen represents a call rejected by the circuit breaker.
	ErrorClassCircuitOpen ErrorClass = "circuit_open"
)

// NotFoundError reports that the upstream API has no record for an identifier.
// It is an expected outcome, not an infrastructure failure.
type NotFoundError struct {
	NameOrID string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Pokémon with name or ID '%s' not found.", e.NameOrID)
}

// TransportError represents any upstream failure that is not a NotFoundError:
// network errors, timeouts, unexpected statuses and undecodable payloads.
type TransportError struct {
	Op         string
	Endpoint   string
	StatusCode int
	Class      ErrorClass
	Err        error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		if e.Err != nil {
			return fmt.Sprintf("pokeapi %s: %s error on %s (status %d): %v",
				e.Op, e.Class, e.Endpoint, e.StatusCode, e.Err)
		}
		return fmt.Sprintf("pokeapi %s: %s error on %s (status %d)",
			e.Op, e.Class, e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("pokeapi %s: %s error on %s: %v", e.Op, e.Class, e.Endpoint, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsTransport reports whether err is or wraps a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsCircuitOpen reports whether err is a call the circuit breaker rejected
// without reaching upstream.
func IsCircuitOpen(err error) bool {
	return classOf(err) == ErrorClassCircuitOpen
}

// classOf extracts the error class of err, or "" for non-transport errors.
func classOf(err error) ErrorClass {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Class
	}
	return ""
}

// shouldRetry determines if an error should be retried based on its classification.
func shouldRetry(errorClass ErrorClass) bool {
	switch errorClass {
	case ErrorClassServer, ErrorClassRateLimit, ErrorClassNetwork:
		return true
	default:
		// 404, other 4xx, decode failures, timeouts and an open circuit
		// will not change on a second attempt
		return false
	}
}
