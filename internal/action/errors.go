package action

import "errors"

// Domain errors for the action package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, action.ErrActionNotFound) {
//	    // handle not found case
//	}
var (
	// ErrActionNotFound is returned when an action ID does not exist.
	ErrActionNotFound = errors.New("action: not found")

	// ErrActionExists is returned when creating an action with an ID that already exists.
	ErrActionExists = errors.New("action: already exists")

	// ErrInvalidAction is returned when action validation fails.
	ErrInvalidAction = errors.New("action: invalid")

	// ErrInvalidName is returned when an action name is too long.
	ErrInvalidName = errors.New("action: invalid name")

	// ErrInvalidTrigger is returned when a trigger reference is malformed.
	ErrInvalidTrigger = errors.New("action: invalid trigger")
)
