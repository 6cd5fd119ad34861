package core

import (
	"errors"
)

var (
	// ErrInvalidState is returned when an operation is called in the wrong
	// session state, e.g. drawing outside of Begin/End.
	ErrInvalidState = errors.New("invalid state")
	// ErrCapacity is returned when a requested size exceeds what a buffer can hold.
	ErrCapacity = errors.New("capacity exceeded")
	// ErrSingularMatrix is returned when a transform cannot be inverted.
	ErrSingularMatrix = errors.New("singular matrix")
	// ErrNilTexture is returned when a draw is requested without a texture.
	ErrNilTexture = errors.New("nil texture")
	// ErrInvalidArgument is returned for malformed input such as a vertex
	// count that is not a whole number of quads.
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnknown         = errors.New("unknown")
)
