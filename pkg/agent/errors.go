package agent

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrorKind classifies invocation failures. The session engine records
// the kind in the failed response slot rather than aborting the round.
type ErrorKind string

const (
	// ErrUnavailable means the provider executable could not be
	// resolved on PATH (or the API client could not be constructed).
	ErrUnavailable ErrorKind = "agent_unavailable"

	// ErrTimeout means the invocation exceeded its effective timeout.
	ErrTimeout ErrorKind = "agent_timeout"

	// ErrRuntime means the external process exited nonzero or the
	// transport returned a malformed or error response.
	ErrRuntime ErrorKind = "agent_runtime_failure"
)

// Error is the typed failure returned by an Invoker.
type Error struct {
	Kind     ErrorKind
	Provider string
	Message  string

	// RateLimited is set on runtime failures whose output matches a
	// provider rate-limit or quota pattern.
	RateLimited bool
	RetryAfter  time.Duration

	Err error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Provider, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Kind)
}

// Unwrap returns the wrapped cause
func (e *Error) Unwrap() error {
	return e.Err
}

func unavailableError(provider, message string, err error) *Error {
	return &Error{Kind: ErrUnavailable, Provider: provider, Message: message, Err: err}
}

func timeoutError(provider string, timeout time.Duration) *Error {
	return &Error{
		Kind:     ErrTimeout,
		Provider: provider,
		Message:  fmt.Sprintf("timed out after %s", timeout),
	}
}

func runtimeError(provider, message string, err error) *Error {
	e := &Error{Kind: ErrRuntime, Provider: provider, Message: message, Err: err}
	if isRateLimitMessage(message) {
		e.RateLimited = true
		if after := parseRetryAfter(message); after > 0 {
			e.RetryAfter = after
		}
	}
	return e
}

// rateLimitPatterns cover the provider messages observed for rate
// limit and quota conditions.
var rateLimitPatterns = []string{
	"429",
	"rate limit",
	"rate_limit",
	"ratelimit",
	"usage_limit_reached",
	"quota exceeded",
	"quota_exceeded",
	"too many requests",
	"overloaded",
	"capacity",
	"try again later",
	"retry after",
	"throttl",
}

func isRateLimitMessage(message string) bool {
	lower := strings.ToLower(message)
	for _, pattern := range rateLimitPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

var retryAfterPatterns = []*regexp.Regexp{
	regexp.MustCompile(`retry[- ]?after[:\s]+(\d+)`),
	regexp.MustCompile(`try again in (\d+)`),
	regexp.MustCompile(`wait (\d+) second`),
}

// parseRetryAfter extracts a suggested wait from an error message,
// returning 0 when none is found.
func parseRetryAfter(message string) time.Duration {
	lower := strings.ToLower(message)
	for _, pattern := range retryAfterPatterns {
		if m := pattern.FindStringSubmatch(lower); m != nil {
			if seconds, err := strconv.Atoi(m[1]); err == nil {
				return time.Duration(seconds) * time.Second
			}
		}
	}
	return 0
}
