package analysis

import (
	"errors"
	"fmt"

	"github.com/papercomputeco/instagit/pkg/retry"
)

var (
	// ErrEmptyResponse is returned by an attempt whose stream ended without
	// producing any output text. It is retryable.
	ErrEmptyResponse = errors.New("empty response from analysis service")

	// ErrNoResponseBody is returned when a successful response carries no
	// body to stream from. It is terminal.
	ErrNoResponseBody = errors.New("no response body")
)

// HTTPError is a non-2xx response from the analysis service.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("API error: %d", e.StatusCode)
}

// Retryable reports whether the status is one of the transient gateway
// statuses.
func (e *HTTPError) Retryable() bool {
	return retry.IsRetryableStatus(e.StatusCode)
}

// TransportError is a connection-level failure that matched the transient
// error catalogue.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "transport error: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// SecurityRejectionError is returned when the service refused the request
// at its security validation step. It is never retried.
type SecurityRejectionError struct {
	Text string
}

func (e *SecurityRejectionError) Error() string {
	return e.Text
}

// ExhaustedRetriesError is returned once every attempt failed with a
// retryable error.
type ExhaustedRetriesError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedRetriesError) Error() string {
	return fmt.Sprintf("max retries exceeded after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedRetriesError) Unwrap() error {
	return e.Last
}

// StatusCode returns the HTTP status carried by err, or 0 when err does not
// wrap an *HTTPError.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

// IsConnectionFailure reports whether err is a transport failure, possibly
// after retries were exhausted.
func IsConnectionFailure(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}
