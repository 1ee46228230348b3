package service

import (
	"errors"
	"fmt"
)

// ErrNotPermitted is the parent of every domain validation failure. Callers
// use errors.Is(err, ErrNotPermitted) to tell a refused operation apart from
// a storage failure.
var ErrNotPermitted = errors.New("operation not permitted")

var (
	ErrOutsideWorkHours   = notPermitted("outside work hours")
	ErrSessionClosed      = notPermitted("session already closed")
	ErrInvalidCoordinates = notPermitted("invalid coordinates")
	ErrEmptyReport        = notPermitted("report content is empty")
	ErrInvalidDate        = notPermitted("invalid date")
	ErrInvalidRange       = notPermitted("invalid date range")
	ErrInvalidSettings    = notPermitted("invalid settings")
	ErrInvalidStatus      = notPermitted("invalid user status")
	ErrInvalidCredentials = notPermitted("invalid credentials")
	ErrAccountInactive    = notPermitted("account is not active")
)

func notPermitted(reason string) error {
	return fmt.Errorf("%w: %s", ErrNotPermitted, reason)
}
