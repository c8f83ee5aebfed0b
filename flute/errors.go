package flute

import "errors"

var (
	// ErrInvalidArgument reports a malformed call, such as a channel offset
	// that does not fit the frame buffer.
	ErrInvalidArgument = errors.New("flute: invalid argument")
	// ErrUnknownControl reports a control change number the voice does not map.
	ErrUnknownControl = errors.New("flute: unknown control number")
)
