package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// taskQueueSize bounds how many library calls may wait behind the one
// currently executing.
const taskQueueSize = 32

type task struct {
	run  func(*State)
	done chan struct{}
}

// Executor serializes every interpreter access onto one goroutine.
// gopher-lua states are single-threaded; the executor is what makes the
// engine safe to call from request handlers.
type Executor struct {
	st        *State
	queue     chan *task
	quit      chan struct{}
	done      chan struct{}
	closed    atomic.Bool
	closeOnce sync.Once
}

// NewExecutor starts the interpreter goroutine. It takes ownership of st
// and closes it on shutdown.
func NewExecutor(st *State) *Executor {
	ex := &Executor{
		st:    st,
		queue: make(chan *task, taskQueueSize),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go ex.run()
	return ex
}

func (ex *Executor) run() {
	defer close(ex.done)
	defer ex.st.Close()

	for {
		select {
		case t := <-ex.queue:
			ex.runTask(t)
		case <-ex.quit:
			ex.drain()
			return
		}
	}
}

// drain runs whatever was queued before shutdown so no caller is left
// waiting on a task that never executes.
func (ex *Executor) drain() {
	for {
		select {
		case t := <-ex.queue:
			ex.runTask(t)
		default:
			return
		}
	}
}

func (ex *Executor) runTask(t *task) {
	defer close(t.done)
	t.run(ex.st)
}

// Execute runs fn on the interpreter goroutine and waits for it to
// finish. The context only bounds the wait; a call already executing
// runs to completion.
func (ex *Executor) Execute(ctx context.Context, fn func(*State) error) error {
	if ex.closed.Load() {
		return ErrEngineClosed
	}

	t := &task{done: make(chan struct{})}
	var err error
	t.run = func(st *State) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("interpreter panic: %v", r)
			}
		}()
		err = fn(st)
	}

	select {
	case ex.queue <- t:
	case <-ex.quit:
		return ErrEngineClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-t.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the interpreter goroutine after draining queued calls and
// blocks until it has exited.
func (ex *Executor) Close() {
	ex.closeOnce.Do(func() {
		ex.closed.Store(true)
		close(ex.quit)
	})
	<-ex.done
}
