package domain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoCachedData indicates a query failed and no previous value exists to fall back on.
	ErrNoCachedData = errors.New("no cached data")

	// ErrOffline indicates the operation needs the network and the client is offline.
	ErrOffline = errors.New("offline")

	// ErrQueryCancelled indicates an in-flight fetch was cancelled and its result dropped.
	ErrQueryCancelled = errors.New("query cancelled")

	// ErrDuplicateMutation indicates a write with the same idempotency key is already queued.
	ErrDuplicateMutation = errors.New("duplicate mutation")

	// ErrNoMutationDefaults indicates a queued mutation cannot be resumed because
	// no handler is registered for its key.
	ErrNoMutationDefaults = errors.New("no mutation defaults registered")

	// Authentication Errors.

	// ErrUnauthorized indicates the server rejected the credentials (401/403).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrAuthRequired indicates no token is stored.
	ErrAuthRequired = errors.New("authentication required")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)

// RemoteErrorKind classifies a failed request for retry decisions.
type RemoteErrorKind int

const (
	// RemoteTransport means the request never produced an HTTP response.
	RemoteTransport RemoteErrorKind = iota
	// RemoteUnauthorized is a 401 or 403 response.
	RemoteUnauthorized
	// RemoteValidation is any other 4xx response.
	RemoteValidation
	// RemoteServer is a 5xx response.
	RemoteServer
)

// RemoteError is returned by the HTTP gateway for every failed request.
// Status is zero for transport failures.
type RemoteError struct {
	Status  int
	Message string
	Err     error
}

func (e *RemoteError) Error() string {
	switch {
	case e.Status == 0 && e.Err != nil:
		return fmt.Sprintf("request failed: %v", e.Err)
	case e.Message != "":
		return fmt.Sprintf("http %d: %s", e.Status, e.Message)
	default:
		return fmt.Sprintf("http %d: %s", e.Status, http.StatusText(e.Status))
	}
}

func (e *RemoteError) Unwrap() error {
	if e.Kind() == RemoteUnauthorized {
		return ErrUnauthorized
	}
	return e.Err
}

// Kind classifies the error by status code.
func (e *RemoteError) Kind() RemoteErrorKind {
	switch {
	case e.Status == 0:
		return RemoteTransport
	case e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden:
		return RemoteUnauthorized
	case e.Status >= 500:
		return RemoteServer
	default:
		return RemoteValidation
	}
}

// Retryable reports whether repeating the request could succeed.
func (e *RemoteError) Retryable() bool {
	k := e.Kind()
	return k == RemoteTransport || k == RemoteServer || e.Status == http.StatusTooManyRequests
}

// IsRetryable reports whether err is a retryable RemoteError.
// Errors of any other type are treated as transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrQueryCancelled) || errors.Is(err, context.Canceled) {
		return false
	}
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Retryable()
	}
	return true
}
