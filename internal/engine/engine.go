package engine

import (
	"context"
	_ "embed"

	lua "github.com/yuin/gopher-lua"
)

//go:embed luasrc/redline.lua
var librarySource string

// Engine runs the embedded redline library inside a sandboxed Lua
// interpreter. All methods are safe for concurrent use; calls execute
// one at a time on the interpreter goroutine.
type Engine struct {
	exec *Executor
}

type options struct {
	source string
}

// Option configures engine construction.
type Option func(*options)

// WithSource replaces the embedded library source. Used by tests to
// exercise startup failure paths.
func WithSource(source string) Option {
	return func(o *options) {
		o.source = source
	}
}

// New builds the interpreter, loads the library, and starts the
// executor. Construction cost is deliberately front-loaded: once New
// returns, the engine answers calls without further setup.
func New(opts ...Option) (*Engine, error) {
	o := options{source: librarySource}
	for _, opt := range opts {
		opt(&o)
	}

	st, err := NewState(o.source)
	if err != nil {
		return nil, err
	}
	return &Engine{exec: NewExecutor(st)}, nil
}

// Extract returns the document's text: the raw markup view, or the
// accepted view when clean is set.
func (e *Engine) Extract(ctx context.Context, doc []byte, clean bool) (string, error) {
	var text string
	err := e.exec.Execute(ctx, func(st *State) error {
		vals, err := st.Call("extract", ToLua(st.L, doc), ToLua(st.L, clean))
		if err != nil {
			return err
		}
		s, ok := firstString(vals)
		if !ok {
			return ErrBadResult
		}
		text = s
		return nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

// ApplyEdit rewrites the document so the edit shows up as pending
// markup. The returned flag reports whether the target matched; a miss
// is not an error and leaves the document unchanged.
func (e *Engine) ApplyEdit(ctx context.Context, doc []byte, target, newText, author string) ([]byte, bool, error) {
	var (
		result  []byte
		applied bool
	)
	err := e.exec.Execute(ctx, func(st *State) error {
		vals, err := st.Call("apply_edit",
			ToLua(st.L, doc), ToLua(st.L, target), ToLua(st.L, newText), ToLua(st.L, author))
		if err != nil {
			return err
		}
		if len(vals) < 2 {
			return ErrBadResult
		}
		s, ok := ToGo(vals[0]).(string)
		if !ok {
			return ErrBadResult
		}
		b, ok := ToGo(vals[1]).(bool)
		if !ok {
			return ErrBadResult
		}
		result = []byte(s)
		applied = b
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return result, applied, nil
}

// AcceptAll resolves every pending change and strips metadata.
func (e *Engine) AcceptAll(ctx context.Context, doc []byte) ([]byte, error) {
	var result []byte
	err := e.exec.Execute(ctx, func(st *State) error {
		vals, err := st.Call("accept_all", ToLua(st.L, doc))
		if err != nil {
			return err
		}
		s, ok := firstString(vals)
		if !ok {
			return ErrBadResult
		}
		result = []byte(s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Close shuts down the interpreter goroutine and blocks until it exits.
func (e *Engine) Close() {
	e.exec.Close()
}

func firstString(vals []lua.LValue) (string, bool) {
	if len(vals) == 0 {
		return "", false
	}
	s, ok := ToGo(vals[0]).(string)
	return s, ok
}
