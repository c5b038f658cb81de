package model

import "errors"

// Error kinds returned by the relay and tool layers. Tool handlers convert
// these into short, user-facing strings; they never propagate a bare error
// to the transport layer.
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidAddress  = errors.New("invalid address")
	ErrEmptyMessage    = errors.New("empty message")
	ErrRelayUnavailable = errors.New("relay unavailable")
	ErrInternal        = errors.New("internal error")
)

// Kind classifies an error into one of the five kinds named in the
// specification, for formatting in tool output (e.g. "Message failed: <kind>").
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return "InvalidInput"
	case errors.Is(err, ErrInvalidAddress):
		return "InvalidAddress"
	case errors.Is(err, ErrEmptyMessage):
		return "EmptyMessage"
	case errors.Is(err, ErrRelayUnavailable):
		return "RelayUnavailable"
	default:
		return "Internal"
	}
}
