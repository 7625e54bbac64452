// Package retry holds the stateless retry policy for streamed analysis
// calls: backoff delays, retryable status codes, transport error
// classification and the security rejection check.
package retry

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// DefaultMaxRetries is the number of retries after the initial attempt.
	DefaultMaxRetries = 3

	// DefaultBaseDelay is the delay before the first retry. Each further
	// retry doubles it.
	DefaultBaseDelay = 5 * time.Second

	// DefaultTimeout bounds a single attempt from request start to end of
	// stream. Analyses are long running, so this is not an idle timeout.
	DefaultTimeout = 30 * time.Minute

	// securityRejectionMaxLen is the length below which a response is
	// checked for the security validation rejection phrase.
	securityRejectionMaxLen = 100

	securityRejectionPhrase = "security validation"

	// maxShift keeps Delay from overflowing time.Duration.
	maxShift = 30
)

// retryableStatusCodes are cold-start redirects and gateway errors.
var retryableStatusCodes = map[int]struct{}{
	303: {},
	502: {},
	503: {},
	504: {},
}

// transportErrorPatterns are matched case-insensitively against error
// messages. The first group is carried over from the HTTP stacks the API
// was first deployed behind; the second group is how the same failures read
// from net/http.
var transportErrorPatterns = []string{
	"incomplete chunked read",
	"peer closed connection",
	"connection reset",
	"timed out",
	"fetch failed",
	"econnrefused",

	"connection refused",
	"unexpected eof",
	"i/o timeout",
	"deadline exceeded",
	"broken pipe",
	"no such host",
	"server closed idle connection",
}

// IsRetryableStatus reports whether an HTTP status code should be retried.
func IsRetryableStatus(code int) bool {
	_, ok := retryableStatusCodes[code]
	return ok
}

// RetryableStatusCodes returns the retryable status codes in ascending order.
func RetryableStatusCodes() []int {
	return []int{303, 502, 503, 504}
}

// IsTransportError reports whether err looks like a transient connection
// level failure: a reset, a timeout, a refused connection or a stream that
// was closed early.
func IsTransportError(err error) bool {
	if err == nil {
		return false
	}
	return MatchesTransportPattern(err.Error())
}

// MatchesTransportPattern reports whether msg contains one of the transport
// error phrases.
func MatchesTransportPattern(msg string) bool {
	lower := strings.ToLower(msg)
	for _, p := range transportErrorPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// IsSecurityRejection reports whether a response body is the short refusal
// the API sends when a request fails its security validation. Such a
// response is permanent and must not be retried.
func IsSecurityRejection(text string) bool {
	return utf8.RuneCountInString(text) < securityRejectionMaxLen &&
		strings.Contains(strings.ToLower(text), securityRejectionPhrase)
}

// Delay returns the backoff before retrying after the given 0-indexed
// attempt: base * 2^attempt. There is no jitter and no cap other than the
// overflow guard; the attempt budget bounds the total wait.
func Delay(attempt int, base time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > maxShift {
		attempt = maxShift
	}
	return base * time.Duration(1<<uint(attempt))
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
