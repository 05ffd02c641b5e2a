package models

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the engine wraps exactly one of them.
var (
	ErrValidation  = errors.New("validation error")
	ErrNotFound    = errors.New("not found")
	ErrForbidden   = errors.New("provided user does not have permission for this operation")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("service unavailable")
	ErrTimeout     = errors.New("operation timed out")
)

var (
	ErrNoRequest            = fmt.Errorf("%w: requested quote request does not exist", ErrNotFound)
	ErrNoNotification       = fmt.Errorf("%w: requested notification does not exist", ErrNotFound)
	ErrNoOffer              = fmt.Errorf("%w: requested offer does not exist", ErrNotFound)
	ErrNotificationInactive = fmt.Errorf("%w: notification is no longer active", ErrConflict)
	ErrNotificationExpired  = fmt.Errorf("%w: notification has expired", ErrConflict)
	ErrRequestUnavailable   = fmt.Errorf("%w: request is no longer available", ErrConflict)
	ErrOfferExists          = fmt.Errorf("%w: offer already submitted for this request", ErrConflict)
	ErrOfferFinalized       = fmt.Errorf("%w: offer is already accepted or expired", ErrConflict)
	ErrRequestClosed        = fmt.Errorf("%w: request is already accepted or expired", ErrConflict)
)

// ValidationError describes which input field was rejected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
