package model

import (
	"context"
	"errors"
)

// Common errors used across the application
var (
	// Ledger errors
	ErrPlayerNotFound  = errors.New("player not found")
	ErrDuplicatePlayer = errors.New("player already exists")

	// Validation errors
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidArgument = errors.New("invalid argument")

	// Command errors
	ErrPermissionDenied    = errors.New("permission denied")
	ErrConfirmationTimeout = errors.New("confirmation timed out")
	ErrNothingToConfirm    = errors.New("nothing to confirm")
)

// Kind classifies errors for boundary handling
type Kind int

const (
	InternalKind Kind = iota
	NotFoundKind
	DuplicateKind
	ValidationKind
	PermissionKind
	TimeoutKind
)

func (k Kind) String() string {
	switch k {
	case NotFoundKind:
		return "not_found"
	case DuplicateKind:
		return "duplicate"
	case ValidationKind:
		return "validation"
	case PermissionKind:
		return "permission"
	case TimeoutKind:
		return "timeout"
	default:
		return "internal"
	}
}

// KindOf maps an error onto the error taxonomy
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return InternalKind
	case errors.Is(err, ErrPlayerNotFound), errors.Is(err, ErrNothingToConfirm):
		return NotFoundKind
	case errors.Is(err, ErrDuplicatePlayer):
		return DuplicateKind
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrInvalidArgument):
		return ValidationKind
	case errors.Is(err, ErrPermissionDenied):
		return PermissionKind
	case errors.Is(err, ErrConfirmationTimeout), errors.Is(err, context.DeadlineExceeded):
		return TimeoutKind
	default:
		return InternalKind
	}
}
