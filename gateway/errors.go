package gateway

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoProviderAvailable is returned when no provider validated at startup or
// all validated providers have been ruled out for a call.
var ErrNoProviderAvailable = errors.New("no translation provider available")

// ErrRateLimitTimeout marks an admission wait that exceeded the request
// deadline. Callers treat it like any other provider failure.
var ErrRateLimitTimeout = errors.New("rate limiter admission timed out")

// ParseError is a malformed provider response that survived one repair
// attempt. Raw carries the original response for debug logging.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed provider response: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ProviderError reports retry exhaustion against the providers, identifying
// which provider and languages were in flight on the last attempt.
type ProviderError struct {
	Provider  string
	Languages []string
	Err       error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s failed for languages [%s]: %v",
		e.Provider, strings.Join(e.Languages, ", "), e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
