package dispatch

import "errors"

var (
	// ErrInvalidArgument rejects a command before anything is queued.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotReady means the dispatcher is not running or the transport
	// is not initialized. Reported synchronously at the call site.
	ErrNotReady = errors.New("dispatcher not ready")

	// ErrQueueFull means the bounded FIFO rejected the submission.
	ErrQueueFull = errors.New("dispatch queue full")

	// ErrTimeout means the deadline expired while the command was
	// executing against the module.
	ErrTimeout = errors.New("command timed out")

	// ErrDevice means the module reported a failure for the command.
	ErrDevice = errors.New("module reported error")
)
