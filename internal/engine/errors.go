package engine

import (
	"errors"
	"fmt"
)

// Common engine errors.
var (
	// ErrEngineClosed indicates a call after the engine shut down.
	ErrEngineClosed = errors.New("engine closed")

	// ErrFunctionNotFound indicates a missing library function.
	ErrFunctionNotFound = errors.New("library function not found")

	// ErrBadLibrary indicates the library source loaded but does not
	// export a required function.
	ErrBadLibrary = errors.New("redline library missing required function")

	// ErrBadResult indicates a library call returned values of an
	// unexpected shape.
	ErrBadResult = errors.New("library returned unexpected values")
)

// LoadError wraps a failure compiling or evaluating the library source.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load redline library: %v", e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// CallError wraps a runtime failure inside a library call.
type CallError struct {
	Fn  string
	Err error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("redline library %s: %v", e.Fn, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}
