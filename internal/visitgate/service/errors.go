package service

import "errors"

// Error taxonomy for the credential core.  Every failure is a typed value
// returned to the caller; the HTTP layer maps them to responses.  There is
// no retry anywhere in the core; a state conflict from a lost race is a
// correct, final answer.
var (
	// ErrExpired means the pass is past its validity window.
	ErrExpired = errors.New("pass has expired")

	// ErrStateConflict means the pass usage does not match the visitor's
	// current state: already used, wrong phase, or a lost race.
	ErrStateConflict = errors.New("pass not valid for current visitor state")

	// ErrIssuanceConflict means the visitor's current state cannot use a
	// pass of the requested usage, so issuing one is refused.
	ErrIssuanceConflict = errors.New("visitor state does not permit issuing this pass")

	// ErrVisitorNotFound means the pass references a visitor unknown to
	// the store.
	ErrVisitorNotFound = errors.New("visitor not found")

	ErrInvalidVisitorID = errors.New("visitor_id is required")
	ErrInvalidUsage     = errors.New("usage must be check-in or check-out")
	ErrInvalidDuration  = errors.New("duration_minutes must be positive")
	ErrInvalidLocation  = errors.New("location is required")
)
