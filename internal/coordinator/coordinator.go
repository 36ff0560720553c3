package coordinator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dshills/redmark/internal/protocol"
	"github.com/dshills/redmark/internal/runtime"
)

const (
	// DefaultEnsureTimeout bounds one initialization attempt end to end.
	DefaultEnsureTimeout = 60 * time.Second

	// probeTimeout bounds the liveness ping sent to an existing host.
	probeTimeout = 5 * time.Second

	// defaultRelayTimeout bounds one relayed document operation.
	defaultRelayTimeout = 30 * time.Second
)

// attempt is one shared initialization attempt. Every concurrent ensure
// call waits on the same attempt; whichever event resolves it first
// (ready signal, error signal, adoption, or timeout) fans out to all
// waiters.
type attempt struct {
	once sync.Once
	err  error
	done chan struct{}
}

// Coordinator owns engine lifecycle orchestration. It is disposable:
// all fields below mu are in-memory only, and a fresh incarnation
// recovers the true state from the engine host itself.
type Coordinator struct {
	rt  *runtime.Runtime
	log *slog.Logger

	ensureTimeout time.Duration
	relayTimeout  time.Duration

	mu      sync.Mutex
	state   State
	attempt *attempt
	failure *protocol.Error
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the coordinator's logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Coordinator) {
		c.log = log
	}
}

// WithEnsureTimeout overrides the initialization attempt budget.
func WithEnsureTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		c.ensureTimeout = d
	}
}

// WithRelayTimeout overrides the relayed operation budget.
func WithRelayTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		c.relayTimeout = d
	}
}

// New creates a coordinator incarnation bound to rt.
func New(rt *runtime.Runtime, opts ...Option) *Coordinator {
	c := &Coordinator{
		rt:            rt,
		log:           slog.Default(),
		ensureTimeout: DefaultEnsureTimeout,
		relayTimeout:  defaultRelayTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Factory adapts New into a runtime coordinator factory, so each
// revival constructs a fresh incarnation with the same options.
func Factory(opts ...Option) runtime.CoordinatorFactory {
	return func(rt *runtime.Runtime) runtime.Handler {
		return New(rt, opts...)
	}
}

// CurrentState returns the incarnation's readiness view.
func (c *Coordinator) CurrentState() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// EnsureEngine resolves once the engine is ready, starting or adopting
// the singleton engine host as needed. Safe for concurrent use;
// concurrent callers share a single attempt.
func (c *Coordinator) EnsureEngine(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateReady {
		c.mu.Unlock()
		return nil
	}
	att := c.attempt
	if att == nil {
		att = c.beginAttemptLocked()
	}
	c.mu.Unlock()

	select {
	case <-att.done:
		return att.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// beginAttemptLocked installs a fresh attempt and moves the state to
// Initializing before anything else happens, so a signal racing the
// attempt always finds a latch to resolve. Callers hold mu.
func (c *Coordinator) beginAttemptLocked() *attempt {
	att := &attempt{done: make(chan struct{})}
	c.attempt = att
	c.state = StateInitializing
	c.failure = nil
	go c.watchAttempt(att)
	go c.runAttempt(att)
	return att
}

// watchAttempt enforces the attempt budget.
func (c *Coordinator) watchAttempt(att *attempt) {
	timer := time.NewTimer(c.ensureTimeout)
	defer timer.Stop()

	select {
	case <-att.done:
	case <-timer.C:
		err := protocol.NewError(protocol.CodeInitializationTimeout, "engine initialization timed out")
		c.mu.Lock()
		if c.attempt == att {
			c.attempt = nil
			c.state = StateFailed
			c.failure = err
		}
		c.mu.Unlock()
		c.resolveAttempt(att, err)
		c.log.Warn("initialization attempt timed out", "budget", c.ensureTimeout)
	}
}

// runAttempt performs the recovery-then-create flow: adopt an existing
// ready host, wait on one that is still starting, or create the
// singleton and wait for its signal.
func (c *Coordinator) runAttempt(att *attempt) {
	if c.rt.WorkerExists() {
		ready, err := c.probeWorker()
		switch {
		case err == nil && ready:
			c.adopt(att)
			return
		case err == nil:
			c.log.Debug("engine host still starting, waiting for signal")
			return
		default:
			// an unreachable host is indistinguishable from no host
			c.log.Warn("engine host probe failed, recreating", "err", err)
		}
	}

	switch err := c.rt.CreateWorker(); {
	case err == nil:
		c.log.Info("engine host created")
	case errors.Is(err, runtime.ErrWorkerExists):
		// lost a creation race; adopt whatever won it
		if ready, perr := c.probeWorker(); perr == nil && ready {
			c.adopt(att)
			return
		}
		c.log.Debug("engine host already exists, waiting for signal")
	default:
		c.failAttempt(att, protocol.NewError(
			protocol.CodeInitializationFailure, "engine host creation failed").WithDetail(err.Error()))
	}
}

// probeWorker pings the engine host and reports its readiness flag.
func (c *Coordinator) probeWorker() (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	req, err := protocol.NewRequest(protocol.KindPing, nil)
	if err != nil {
		return false, err
	}
	resp, err := c.rt.Call(ctx, runtime.EndpointWorker, req)
	if err != nil {
		return false, err
	}
	var pr protocol.PingResult
	if err := protocol.DecodeResult(resp, &pr); err != nil {
		return false, err
	}
	return pr.Ready, nil
}

// adopt latches Ready off a successful probe of an already-running host.
func (c *Coordinator) adopt(att *attempt) {
	c.mu.Lock()
	if c.attempt == att {
		c.attempt = nil
	}
	c.state = StateReady
	c.failure = nil
	c.mu.Unlock()

	c.resolveAttempt(att, nil)
	c.log.Info("adopted running engine host")
}

func (c *Coordinator) failAttempt(att *attempt, perr *protocol.Error) {
	c.mu.Lock()
	if c.attempt == att {
		c.attempt = nil
		c.state = StateFailed
		c.failure = perr
	}
	c.mu.Unlock()

	c.resolveAttempt(att, perr)
	c.log.Error("initialization attempt failed", "err", perr)
}

// resolveAttempt settles an attempt exactly once. The error written
// here is what every waiting ensure call returns.
func (c *Coordinator) resolveAttempt(att *attempt, err error) {
	att.once.Do(func() {
		att.err = err
		close(att.done)
	})
}

// Stop resolves any in-flight attempt so no waiter outlives the
// incarnation. Implements runtime.Stopper.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	att := c.attempt
	c.attempt = nil
	c.mu.Unlock()

	if att != nil {
		c.resolveAttempt(att, protocol.NewError(
			protocol.CodeCommunicationFailure, "coordinator suspended"))
	}
}

// HandleRequest dispatches one protocol request to the coordinator
// operation it names.
func (c *Coordinator) HandleRequest(ctx context.Context, req *protocol.Request) *protocol.Response {
	switch req.Kind {
	case protocol.KindEnsureEngine:
		return c.handleEnsure(ctx, req)
	case protocol.KindCheckStatus:
		return c.handleStatus(req)
	case protocol.KindExtract, protocol.KindApply, protocol.KindAcceptAll:
		return c.relay(ctx, req)
	case protocol.KindReadySignal:
		c.handleReadySignal()
		return nil
	case protocol.KindErrorSignal:
		c.handleErrorSignal(req)
		return nil
	default:
		return protocol.ErrResponse(req, protocol.Errorf(
			protocol.CodeInvalidRequest, "coordinator does not handle %q", req.Kind))
	}
}

func (c *Coordinator) handleEnsure(ctx context.Context, req *protocol.Request) *protocol.Response {
	if err := c.EnsureEngine(ctx); err != nil {
		return protocol.ErrResponse(req, protocol.FromError(err))
	}
	resp, err := protocol.OKResponse(req, &protocol.EnsureResult{Ready: true})
	if err != nil {
		return protocol.ErrResponse(req, protocol.FromError(err))
	}
	return resp
}

// handleStatus reads the readiness view without side effects: no
// attempt starts, no host gets created.
func (c *Coordinator) handleStatus(req *protocol.Request) *protocol.Response {
	c.mu.Lock()
	st := c.state
	failure := c.failure
	c.mu.Unlock()

	res := &protocol.StatusResult{
		Ready: st == StateReady,
		State: st.String(),
	}
	if st == StateFailed && failure != nil {
		res.Reason = failure.Message
	}
	resp, err := protocol.OKResponse(req, res)
	if err != nil {
		return protocol.ErrResponse(req, protocol.FromError(err))
	}
	return resp
}

// handleReadySignal latches Ready. Arrives unsolicited, possibly for an
// incarnation that never asked for anything.
func (c *Coordinator) handleReadySignal() {
	c.mu.Lock()
	att := c.attempt
	c.attempt = nil
	c.state = StateReady
	c.failure = nil
	c.mu.Unlock()

	if att != nil {
		c.resolveAttempt(att, nil)
	}
	c.log.Info("engine ready")
}

func (c *Coordinator) handleErrorSignal(req *protocol.Request) {
	reason := "engine startup failed"
	if sig, perr := protocol.DecodeErrorSignal(req); perr == nil && sig.Reason != "" {
		reason = sig.Reason
	}
	err := protocol.NewError(protocol.CodeInitializationFailure, reason)

	c.mu.Lock()
	att := c.attempt
	c.attempt = nil
	c.state = StateFailed
	c.failure = err
	c.mu.Unlock()

	if att != nil {
		c.resolveAttempt(att, err)
	}
	c.log.Error("engine startup failed", "reason", reason)
}
