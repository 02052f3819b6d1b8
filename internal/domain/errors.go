package domain

import "errors"

// Sentinel errors for the domain layer.
var (
	ErrNotFound = errors.New("domain: not found")

	// ErrDecode marks an inbound payload that cannot be decoded.
	ErrDecode = errors.New("domain: invalid JSON")
	// ErrMalformed narrows ErrDecode to valid JSON that is not an object.
	ErrMalformed = errors.New("domain: malformed message")
	// ErrUnrecognized marks a valid payload with no known dispatch key.
	ErrUnrecognized = errors.New("domain: unrecognized message")
	// ErrSessionClosed is returned by a session that has already been closed.
	ErrSessionClosed = errors.New("domain: session closed")
)
