package ssdash

import (
	"errors"
)

// The errors in ssdash library can check the error type via errors.Is function.
var (
	// ErrCommunicate is a error for if failed to connect or communicate with the checker server.
	ErrCommunicate = errors.New("server communication error")

	// ErrUnauthorized is a error for if the checker server rejected the request because of the session.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidEndpoint is a error for if the endpoint input was invalid.
	ErrInvalidEndpoint = errors.New("invalid endpoint")

	// ErrInvalidCredentials is a error for if the login input was incomplete.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidSettings is a error for if the settings input was invalid.
	ErrInvalidSettings = errors.New("invalid settings")

	// ErrNotFound is a error for if the requested endpoint does not exist.
	ErrNotFound = errors.New("endpoint not found")

	// ErrUnknownEvent is a error for if the push stream sent an event that has unsupported type.
	ErrUnknownEvent = errors.New("unknown event type")

	// ErrInvalidEvent is a error for if the push stream sent a malformed event.
	ErrInvalidEvent = errors.New("invalid event")
)
