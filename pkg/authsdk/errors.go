package authsdk

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidToken is returned by SessionStore.Commit when the token
	// payload cannot be decoded. Nothing is written in that case.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenMissing is reported by the callback when the redirect carries
	// no token, including a second pass over an already cleaned URL.
	ErrTokenMissing = errors.New("token not found")

	// ErrSessionExpired is returned by the Gateway after the backend answered
	// 401. The session has already been cleared when the caller sees it.
	ErrSessionExpired = errors.New("session expired")

	// ErrNoSession is returned by operations that need a stored token.
	ErrNoSession = errors.New("no active session")

	// ErrSessionChanged aborts a profile merge when the session was replaced
	// or cleared while the profile request was in flight.
	ErrSessionChanged = errors.New("session changed during profile refresh")
)

// StatusError describes a non-2xx backend answer surfaced by helpers that
// decode bodies. The Gateway itself never produces it.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("HTTP %d: %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}
