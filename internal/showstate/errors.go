package showstate

import "errors"

var (
	// ErrInvalidPayload is returned when a state message cannot be decoded.
	ErrInvalidPayload = errors.New("showstate: invalid payload")

	// ErrNoActiveLayout is returned when no output layout is known.
	ErrNoActiveLayout = errors.New("showstate: no active layout")

	// ErrSlideOutOfRange is returned for a slide index the layout lacks.
	ErrSlideOutOfRange = errors.New("showstate: slide index out of range")
)
