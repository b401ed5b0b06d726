// Package domain contains entities and wire-level vocabulary, no logic.
package domain

import "errors"

const MaxUsernameLen = 36

// Structural errors returned to the originating client. Relay events never
// surface errors; malformed relays are dropped.
var (
	ErrMissingUsername = errors.New("username is required")
	ErrUsernameTooLong = errors.New("username too long")
	ErrUnknownRoom     = errors.New("invalid room")
	ErrInvalidRequest  = errors.New("invalid request")
)

// ValidateUsername gates a display name before it is bound to a connection.
func ValidateUsername(name string) error {
	if len(name) == 0 {
		return ErrMissingUsername
	}
	if len(name) > MaxUsernameLen {
		return ErrUsernameTooLong
	}
	return nil
}
