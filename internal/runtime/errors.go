package runtime

import "errors"

// Common runtime errors.
var (
	// ErrWorkerExists indicates a worker endpoint already exists; the
	// runtime never hosts more than one.
	ErrWorkerExists = errors.New("worker already exists")

	// ErrNoWorkerFactory indicates worker creation was requested before a
	// factory was registered.
	ErrNoWorkerFactory = errors.New("no worker factory registered")

	// ErrNoReceiver indicates a frame had no live endpoint to go to.
	ErrNoReceiver = errors.New("no receiving endpoint")

	// ErrDuplicateID indicates a call reused an ID still in flight.
	ErrDuplicateID = errors.New("duplicate in-flight message id")
)
