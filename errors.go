package persontric

import "errors"

var (
	// ErrAdapterUnavailable wraps every failure returned by the persistence adapter.
	// The original cause stays reachable through errors.Is / errors.As.
	ErrAdapterUnavailable = errors.New("session adapter unavailable")
	// ErrAdapterRequired is returned by Builder.Build when no adapter was supplied.
	ErrAdapterRequired = errors.New("session adapter required")
	// ErrEngineNotReady is returned when a method is called on a nil or unbuilt engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrInvalidSessionID is returned when an explicit session id is empty.
	ErrInvalidSessionID = errors.New("invalid session id")
	// ErrInvalidPersonID is returned when a person id is empty.
	ErrInvalidPersonID = errors.New("invalid person id")
	// ErrSessionCreationFailed is returned when a session id cannot be generated.
	ErrSessionCreationFailed = errors.New("session creation failed")
)
