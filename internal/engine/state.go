package engine

import (
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"
)

// requiredGlobals are the functions the redline library must export.
var requiredGlobals = []string{"extract", "apply_edit", "accept_all"}

// State wraps a sandboxed Lua interpreter with the redline library
// loaded. A State is not safe for concurrent use; the Executor
// serializes access to it.
type State struct {
	L      *lua.LState
	mu     sync.Mutex
	closed bool
}

// NewState creates a sandboxed interpreter and evaluates the library
// source in it. The interpreter opens only the base, table, string, and
// math libraries; io, os, debug, and package stay closed.
func NewState(source string) (*State, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	s := &State{L: L}

	if err := s.openSafeLibraries(); err != nil {
		L.Close()
		return nil, err
	}
	if err := L.DoString(source); err != nil {
		L.Close()
		return nil, &LoadError{Err: err}
	}
	for _, name := range requiredGlobals {
		if L.GetGlobal(name).Type() != lua.LTFunction {
			L.Close()
			return nil, fmt.Errorf("%w: %s", ErrBadLibrary, name)
		}
	}
	return s, nil
}

func (s *State) openSafeLibraries() error {
	libs := []struct {
		name string
		open lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	}
	for _, lib := range libs {
		if err := s.L.CallByParam(lua.P{
			Fn:      s.L.NewFunction(lib.open),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name)); err != nil {
			return fmt.Errorf("open %s library: %w", lib.name, err)
		}
	}
	return nil
}

// Call invokes a global library function and returns all of its results.
// The stack is restored to its prior depth whether or not the call
// succeeds.
func (s *State) Call(fn string, args ...lua.LValue) ([]lua.LValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrEngineClosed
	}
	fnVal := s.L.GetGlobal(fn)
	if fnVal.Type() != lua.LTFunction {
		return nil, fmt.Errorf("%w: %s", ErrFunctionNotFound, fn)
	}

	top := s.L.GetTop()
	s.L.Push(fnVal)
	for _, arg := range args {
		s.L.Push(arg)
	}
	if err := s.L.PCall(len(args), lua.MultRet, nil); err != nil {
		s.L.SetTop(top)
		return nil, &CallError{Fn: fn, Err: err}
	}

	results := make([]lua.LValue, 0, s.L.GetTop()-top)
	for i := top + 1; i <= s.L.GetTop(); i++ {
		results = append(results, s.L.Get(i))
	}
	s.L.SetTop(top)
	return results, nil
}

// Close releases the interpreter. Safe to call more than once.
func (s *State) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.L.Close()
}
