package enginehost

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/redmark/internal/engine"
	"github.com/dshills/redmark/internal/protocol"
	"github.com/dshills/redmark/internal/redline"
	"github.com/dshills/redmark/internal/runtime"
)

// defaultOpTimeout bounds one document operation, batch apply included.
const defaultOpTimeout = 30 * time.Second

// Host is the engine host worker: the long-lived endpoint owning the
// embedded engine and the document slot. Construction returns
// immediately; the engine starts on a background goroutine and announces
// the outcome to the coordinator with a ready or error signal.
type Host struct {
	rt  *runtime.Runtime
	log *slog.Logger

	engineOpts []engine.Option
	opTimeout  time.Duration

	ready   atomic.Bool
	stopped atomic.Bool
	eng     *engine.Engine

	// jobMu guards the single document slot. Extract fills it, a later
	// apply or accept-all consumes it; the newest extraction wins.
	// hasJob marks the slot occupied: a zero-length document is still a
	// document, distinct from no document at all.
	jobMu  sync.Mutex
	job    []byte
	hasJob bool

	stopOnce sync.Once
}

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the host's logger.
func WithLogger(log *slog.Logger) Option {
	return func(h *Host) {
		h.log = log
	}
}

// WithEngineOptions passes options through to engine construction.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(h *Host) {
		h.engineOpts = opts
	}
}

// WithOpTimeout overrides the per-operation budget.
func WithOpTimeout(d time.Duration) Option {
	return func(h *Host) {
		h.opTimeout = d
	}
}

// New creates the host and kicks off engine startup in the background.
func New(rt *runtime.Runtime, opts ...Option) *Host {
	h := &Host{
		rt:        rt,
		log:       slog.Default(),
		opTimeout: defaultOpTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	go h.start()
	return h
}

// Factory adapts New into a runtime worker factory.
func Factory(opts ...Option) runtime.WorkerFactory {
	return func(rt *runtime.Runtime) (runtime.Handler, error) {
		return New(rt, opts...), nil
	}
}

func (h *Host) start() {
	eng, err := engine.New(h.engineOpts...)
	if err != nil {
		h.log.Error("engine startup failed", "err", err)
		h.signal(protocol.KindErrorSignal, &protocol.ErrorSignal{Reason: err.Error()})
		return
	}
	if h.stopped.Load() {
		eng.Close()
		return
	}
	h.eng = eng
	h.ready.Store(true)
	h.log.Info("engine ready")
	h.signal(protocol.KindReadySignal, nil)
}

// signal pushes a one-way readiness notification to the coordinator.
// Delivery failures are logged, never fatal: the coordinator can always
// recover the state later with a ping.
func (h *Host) signal(kind protocol.Kind, payload any) {
	req, err := protocol.NewRequest(kind, payload)
	if err != nil {
		h.log.Error("build signal failed", "kind", kind, "err", err)
		return
	}
	if err := h.rt.Notify(runtime.EndpointCoordinator, req); err != nil {
		h.log.Warn("signal undeliverable", "kind", kind, "err", err)
	}
}

// Ready reports whether the engine finished starting up.
func (h *Host) Ready() bool {
	return h.ready.Load()
}

// Stop releases the engine. Implements runtime.Stopper so worker
// teardown reclaims the interpreter.
func (h *Host) Stop() {
	h.stopOnce.Do(func() {
		h.stopped.Store(true)
		h.ready.Store(false)
		if h.eng != nil {
			h.eng.Close()
		}
		h.clearJob()
	})
}

// HandleRequest dispatches one protocol request to the host operation
// it names.
func (h *Host) HandleRequest(ctx context.Context, req *protocol.Request) *protocol.Response {
	switch req.Kind {
	case protocol.KindPing:
		resp, _ := protocol.OKResponse(req, &protocol.PingResult{Ready: h.ready.Load()})
		return resp
	case protocol.KindExtract:
		return h.handleExtract(ctx, req)
	case protocol.KindApply:
		return h.handleApply(ctx, req)
	case protocol.KindAcceptAll:
		return h.handleAcceptAll(ctx, req)
	default:
		return protocol.ErrResponse(req, protocol.Errorf(
			protocol.CodeInvalidRequest, "engine host does not handle %q", req.Kind))
	}
}

func (h *Host) handleExtract(ctx context.Context, req *protocol.Request) *protocol.Response {
	p, perr := protocol.DecodeExtractRequest(req)
	if perr != nil {
		return protocol.ErrResponse(req, perr)
	}
	if !h.ready.Load() {
		return protocol.ErrResponse(req, protocol.NewError(
			protocol.CodeEngineNotReady, "engine is still starting"))
	}

	ctx, cancel := context.WithTimeout(ctx, h.opTimeout)
	defer cancel()

	text, err := h.eng.Extract(ctx, p.Bytes, p.Mode == protocol.ModeClean)
	if err != nil {
		return protocol.ErrResponse(req, protocol.NewError(
			protocol.CodeEngineFailure, "extraction failed").WithDetail(err.Error()))
	}

	h.storeJob(p.Bytes)
	h.log.Debug("document extracted", "bytes", len(p.Bytes), "mode", p.Mode)

	resp, err := protocol.OKResponse(req, &protocol.ExtractResult{Text: text})
	if err != nil {
		return protocol.ErrResponse(req, protocol.FromError(err))
	}
	return resp
}

func (h *Host) handleApply(ctx context.Context, req *protocol.Request) *protocol.Response {
	p, perr := protocol.DecodeApplyRequest(req)
	if perr != nil {
		return protocol.ErrResponse(req, perr)
	}
	if !h.ready.Load() {
		return protocol.ErrResponse(req, protocol.NewError(
			protocol.CodeEngineNotReady, "engine is still starting"))
	}

	doc, derr := h.resolveDocument(p.FallbackBytes)
	if derr != nil {
		return protocol.ErrResponse(req, derr)
	}
	// The slot is spent once an apply runs, success or not. Holding a
	// stale document past its batch only invites applying edits twice.
	defer h.clearJob()

	ctx, cancel := context.WithTimeout(ctx, h.opTimeout)
	defer cancel()

	report := redline.NewReport(len(p.Edits))
	current := doc
	for _, step := range redline.BuildPlan(p.Edits) {
		if step.Edit.TargetText == "" {
			// Nothing to locate. The engine would read an empty target
			// as a match at the start of the document and insert there.
			h.log.Debug("edit skipped, empty target", "index", step.Index)
			report.Record(step.Index, false)
			continue
		}
		next, applied, err := h.eng.ApplyEdit(ctx, current, step.Edit.TargetText, step.Edit.NewText, p.Author)
		if err != nil {
			return protocol.ErrResponse(req, protocol.NewError(
				protocol.CodeEngineFailure, "edit application failed").WithDetail(err.Error()))
		}
		if applied {
			current = next
		}
		report.Record(step.Index, applied)
	}

	h.log.Info("edits applied", "applied", report.Applied, "skipped", report.Skipped)

	resp, err := protocol.OKResponse(req, &protocol.ApplyResult{
		ResultBytes: current,
		Applied:     report.Applied,
		Skipped:     report.Skipped,
		Outcomes:    report.Outcomes,
	})
	if err != nil {
		return protocol.ErrResponse(req, protocol.FromError(err))
	}
	return resp
}

func (h *Host) handleAcceptAll(ctx context.Context, req *protocol.Request) *protocol.Response {
	p, perr := protocol.DecodeAcceptAllRequest(req)
	if perr != nil {
		return protocol.ErrResponse(req, perr)
	}
	if !h.ready.Load() {
		return protocol.ErrResponse(req, protocol.NewError(
			protocol.CodeEngineNotReady, "engine is still starting"))
	}

	doc, derr := h.resolveDocument(p.FallbackBytes)
	if derr != nil {
		return protocol.ErrResponse(req, derr)
	}
	defer h.clearJob()

	ctx, cancel := context.WithTimeout(ctx, h.opTimeout)
	defer cancel()

	result, err := h.eng.AcceptAll(ctx, doc)
	if err != nil {
		return protocol.ErrResponse(req, protocol.NewError(
			protocol.CodeEngineFailure, "accept-all failed").WithDetail(err.Error()))
	}

	resp, err := protocol.OKResponse(req, &protocol.AcceptAllResult{ResultBytes: result})
	if err != nil {
		return protocol.ErrResponse(req, protocol.FromError(err))
	}
	return resp
}

// resolveDocument picks the input for apply and accept-all: the cached
// slot when occupied, else the caller's fallback. A nil fallback means
// none was supplied; zero-length bytes are a real, empty document.
func (h *Host) resolveDocument(fallback []byte) ([]byte, *protocol.Error) {
	if doc, ok := h.loadJob(); ok {
		return doc, nil
	}
	if fallback == nil {
		return nil, protocol.NewError(
			protocol.CodeNoDocumentAvailable, "extract a document first or supply fallback bytes")
	}
	return fallback, nil
}

func (h *Host) storeJob(doc []byte) {
	h.jobMu.Lock()
	defer h.jobMu.Unlock()
	h.job = doc
	h.hasJob = true
}

func (h *Host) loadJob() ([]byte, bool) {
	h.jobMu.Lock()
	defer h.jobMu.Unlock()
	return h.job, h.hasJob
}

func (h *Host) clearJob() {
	h.jobMu.Lock()
	defer h.jobMu.Unlock()
	h.job = nil
	h.hasJob = false
}
