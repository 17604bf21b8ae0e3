package session

import "errors"

var (
	// ErrEngineUnavailable is returned when a session cannot be initialized.
	// The session stays uninitialized and the caller may retry Start.
	ErrEngineUnavailable = errors.New("engine unavailable")
	// ErrAdvanceRejected is returned when an advance did not produce a usable
	// snapshot. The session keeps its last good state.
	ErrAdvanceRejected = errors.New("advance rejected")
	// ErrEndOfStream is returned when advancing past the last byte. No remote
	// call is issued.
	ErrEndOfStream = errors.New("end of stream")

	// ErrEmptyStream is returned when starting a session over empty text.
	ErrEmptyStream = errors.New("empty input")
	// ErrNotStarted is returned when advancing before a session is ready.
	ErrNotStarted = errors.New("session not started")
	// ErrBusy is returned when advancing while another request is in flight.
	ErrBusy = errors.New("request already in flight")
	// ErrSuperseded completes requests overtaken by a newer Start.
	ErrSuperseded = errors.New("superseded by a newer session")

	// ErrInvalidSnapshot marks an engine response that failed validation.
	ErrInvalidSnapshot = errors.New("invalid engine snapshot")
	// ErrEmptySnapshot marks an engine response with nothing to report.
	ErrEmptySnapshot = errors.New("engine returned no snapshot")
)
