// Package services defines the business logic for invites, relationship
// linking, messages, characters and AI turns. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed
// at the handler layer.
package services

import (
	"errors"
	"fmt"
)

// Relationship and message errors.
var (
	// ErrRelationshipNotFound indicates that the relationship does not exist.
	ErrRelationshipNotFound = errors.New("relationship not found")

	// ErrNotParticipant is returned when the caller is not a current
	// participant of the relationship.
	ErrNotParticipant = errors.New("not a participant of this relationship")

	// ErrTooLong is returned when a message exceeds the configured length limit.
	ErrTooLong = errors.New("message too long")

	// ErrForbidden is returned when the caller may not act on the resource.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidInput wraps validation failures of caller-supplied input.
	ErrInvalidInput = errors.New("invalid input")
)

// Invite errors.
var (
	ErrInviteNotFound  = errors.New("invite not found")
	ErrInviteNotUsable = errors.New("invite not usable")
	ErrUnknownArea     = errors.New("unknown product area")
)

// Character and turn errors.
var (
	// ErrProfileImmutable is returned on any attempt to create a second
	// character profile or to edit one through the public API.
	ErrProfileImmutable = errors.New("character profile already exists and cannot be changed")
	ErrProfileNotFound  = errors.New("character profile not found")

	// ErrWrongArea is returned when an operation is not available for the
	// relationship's product area (e.g. AI turns outside BigGote).
	ErrWrongArea = errors.New("operation not available in this area")

	// ErrAIUnavailable wraps failures of the chat-completion backend.
	ErrAIUnavailable = errors.New("ai backend unavailable")
)

// Link error codes. The set is stable; handlers map each code to a fixed
// human-readable sentence.
const (
	LinkReadDenied         = "read_denied"
	LinkInviteNotFound     = "invite_not_found"
	LinkNotUsable          = "not_usable"
	LinkCreateDenied       = "create_denied"
	LinkSummaryWriteDenied = "summary_write_denied"
	LinkInviteUpdateDenied = "invite_update_denied"
	LinkIDCollision        = "id_collision"
)

// LinkError is the failure of one step of invite acceptance.
type LinkError struct {
	Code   string
	Reason string
	Err    error
}

func (e *LinkError) Error() string {
	msg := "link " + e.Code
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LinkError) Unwrap() error { return e.Err }

// Is lets errors.Is match on code: errors.Is(err, &LinkError{Code: LinkNotUsable}).
func (e *LinkError) Is(target error) bool {
	t, ok := target.(*LinkError)
	return ok && t.Code == e.Code
}

func linkErr(code, reason string, err error) *LinkError {
	return &LinkError{Code: code, Reason: reason, Err: err}
}

// invalid wraps a validation failure so handlers can map it to 400.
func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
