package canbus

import "errors"

var (
	ErrDuplicateID   = errors.New("canbus: identifier already registered")
	ErrSignalOverlap = errors.New("canbus: signals overlap")
	ErrSignalRange   = errors.New("canbus: signal out of range")
	ErrMessage       = errors.New("canbus: invalid message")
	ErrDirection     = errors.New("canbus: wrong message direction")
	ErrPayloadLength = errors.New("canbus: payload shorter than message")
	ErrTickReentered = errors.New("canbus: tick re-entered")

	// ErrTransmit wraps transport failures. It is transient: the next
	// periodic fire of the message retries.
	ErrTransmit = errors.New("canbus: transmit failed")
)
