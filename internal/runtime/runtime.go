package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dshills/redmark/internal/protocol"
)

// Endpoint names routable by the runtime.
const (
	// EndpointCoordinator is the revivable orchestration endpoint.
	EndpointCoordinator = "coordinator"
	// EndpointWorker is the singleton engine host endpoint.
	EndpointWorker = "worker"
)

// Handler processes one request delivered to an endpoint. Each frame is
// handled on its own goroutine, so handlers do their own locking. For
// one-way signal kinds the returned response is discarded.
type Handler interface {
	HandleRequest(ctx context.Context, req *protocol.Request) *protocol.Response
}

// Stopper is implemented by handlers that hold resources needing release
// when their endpoint is torn down.
type Stopper interface {
	Stop()
}

// WorkerFactory builds the worker endpoint. It must return promptly and
// must not send messages synchronously; long startup belongs on a
// goroutine inside the worker.
type WorkerFactory func(rt *Runtime) (Handler, error)

// CoordinatorFactory builds a fresh coordinator incarnation. Called
// every time a frame arrives for a coordinator that is not resident.
type CoordinatorFactory func(rt *Runtime) Handler

// Runtime routes frames between the endpoints of one process group. It
// owns the two lifecycle rules everything above it depends on: the
// worker is a singleton that outlives coordinator restarts, and the
// coordinator is revived on demand whenever a frame arrives for it.
type Runtime struct {
	log *slog.Logger

	mu                 sync.Mutex
	worker             Handler
	workerFactory      WorkerFactory
	coordinator        Handler
	coordinatorFactory CoordinatorFactory

	pmu     sync.Mutex
	pending map[string]chan []byte
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the runtime's logger.
func WithLogger(log *slog.Logger) Option {
	return func(rt *Runtime) {
		rt.log = log
	}
}

// New creates a Runtime with no endpoints registered.
func New(opts ...Option) *Runtime {
	rt := &Runtime{
		log:     slog.Default(),
		pending: make(map[string]chan []byte),
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// SetWorkerFactory registers the worker constructor.
func (rt *Runtime) SetWorkerFactory(f WorkerFactory) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.workerFactory = f
}

// SetCoordinatorFactory registers the coordinator constructor.
func (rt *Runtime) SetCoordinatorFactory(f CoordinatorFactory) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.coordinatorFactory = f
}

// CreateWorker instantiates the singleton worker endpoint. When several
// callers race, exactly one creation succeeds and the rest get
// ErrWorkerExists.
func (rt *Runtime) CreateWorker() error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.workerFactory == nil {
		return ErrNoWorkerFactory
	}
	if rt.worker != nil {
		return ErrWorkerExists
	}
	worker, err := rt.workerFactory(rt)
	if err != nil {
		return err
	}
	rt.worker = worker
	rt.log.Debug("worker endpoint created")
	return nil
}

// WorkerExists reports whether a worker endpoint is resident.
func (rt *Runtime) WorkerExists() bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.worker != nil
}

// DestroyWorker tears down the worker endpoint if one exists. Frames
// addressed to it afterwards fail with ErrNoReceiver until a new worker
// is created.
func (rt *Runtime) DestroyWorker() {
	rt.mu.Lock()
	worker := rt.worker
	rt.worker = nil
	rt.mu.Unlock()

	if s, ok := worker.(Stopper); ok {
		s.Stop()
	}
	if worker != nil {
		rt.log.Debug("worker endpoint destroyed")
	}
}

// SuspendCoordinator drops the resident coordinator incarnation. All of
// its in-memory state is lost; the next frame addressed to the
// coordinator revives a fresh one.
func (rt *Runtime) SuspendCoordinator() {
	rt.mu.Lock()
	coord := rt.coordinator
	rt.coordinator = nil
	rt.mu.Unlock()

	if s, ok := coord.(Stopper); ok {
		s.Stop()
	}
	if coord != nil {
		rt.log.Debug("coordinator suspended")
	}
}

// CoordinatorResident reports whether a coordinator incarnation is live.
func (rt *Runtime) CoordinatorResident() bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.coordinator != nil
}

// Call delivers a request to an endpoint and waits for the matching
// response. The context bounds the wait, not the handler.
func (rt *Runtime) Call(ctx context.Context, to string, req *protocol.Request) (*protocol.Response, error) {
	frame, err := protocol.EncodeRequest(req)
	if err != nil {
		return nil, err
	}

	ch := make(chan []byte, 1)
	rt.pmu.Lock()
	if _, exists := rt.pending[req.ID]; exists {
		rt.pmu.Unlock()
		return nil, ErrDuplicateID
	}
	rt.pending[req.ID] = ch
	rt.pmu.Unlock()

	defer func() {
		rt.pmu.Lock()
		delete(rt.pending, req.ID)
		rt.pmu.Unlock()
	}()

	if err := rt.deliver(to, frame); err != nil {
		return nil, err
	}

	select {
	case respFrame := <-ch:
		return protocol.DecodeResponse(respFrame)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Notify delivers a request without waiting for a response. Used for
// one-way signals.
func (rt *Runtime) Notify(to string, req *protocol.Request) error {
	frame, err := protocol.EncodeRequest(req)
	if err != nil {
		return err
	}
	return rt.deliver(to, frame)
}

func (rt *Runtime) deliver(to string, frame []byte) error {
	h, err := rt.resolve(to)
	if err != nil {
		return err
	}
	go rt.dispatch(h, frame)
	return nil
}

// resolve finds the live handler for an endpoint name. Frames for a
// non-resident coordinator revive one first; frames for a missing
// worker fail.
func (rt *Runtime) resolve(to string) (Handler, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	switch to {
	case EndpointWorker:
		if rt.worker == nil {
			return nil, fmt.Errorf("%w: %s", ErrNoReceiver, to)
		}
		return rt.worker, nil
	case EndpointCoordinator:
		if rt.coordinator == nil {
			if rt.coordinatorFactory == nil {
				return nil, fmt.Errorf("%w: %s", ErrNoReceiver, to)
			}
			rt.coordinator = rt.coordinatorFactory(rt)
			rt.log.Debug("coordinator revived")
		}
		return rt.coordinator, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrNoReceiver, to)
	}
}

func (rt *Runtime) dispatch(h Handler, frame []byte) {
	req, err := protocol.DecodeRequest(frame)
	if err != nil {
		id := protocol.FrameID(frame)
		if id == "" {
			rt.log.Warn("dropping malformed frame", "err", err)
			return
		}
		rt.finish(&protocol.Response{ID: id, OK: false, Error: protocol.FromError(err)})
		return
	}

	resp := h.HandleRequest(context.Background(), req)
	if !req.Kind.ExpectsResponse() {
		return
	}
	if resp == nil {
		resp = protocol.ErrResponse(req, protocol.NewError(
			protocol.CodeCommunicationFailure, "endpoint produced no response"))
	}
	rt.finish(resp)
}

// finish routes a response frame to its waiting caller. Responses
// nobody waits for are dropped.
func (rt *Runtime) finish(resp *protocol.Response) {
	frame, err := protocol.EncodeResponse(resp)
	if err != nil {
		rt.log.Error("encode response failed", "id", resp.ID, "err", err)
		return
	}

	rt.pmu.Lock()
	ch, ok := rt.pending[resp.ID]
	rt.pmu.Unlock()
	if !ok {
		rt.log.Debug("dropping response with no waiter", "id", resp.ID)
		return
	}
	select {
	case ch <- frame:
	default:
	}
}
