package runtime

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/redmark/internal/protocol"
)

type handlerFunc func(ctx context.Context, req *protocol.Request) *protocol.Response

func (f handlerFunc) HandleRequest(ctx context.Context, req *protocol.Request) *protocol.Response {
	return f(ctx, req)
}

func pingHandler() Handler {
	return handlerFunc(func(_ context.Context, req *protocol.Request) *protocol.Response {
		resp, _ := protocol.OKResponse(req, &protocol.PingResult{Ready: true})
		return resp
	})
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestCallRoundTrip(t *testing.T) {
	rt := New()
	rt.SetWorkerFactory(func(*Runtime) (Handler, error) { return pingHandler(), nil })
	if err := rt.CreateWorker(); err != nil {
		t.Fatalf("CreateWorker() error = %v", err)
	}

	req, err := protocol.NewRequest(protocol.KindPing, nil)
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	resp, err := rt.Call(testCtx(t), EndpointWorker, req)
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if resp.ID != req.ID {
		t.Errorf("response ID = %q, want %q", resp.ID, req.ID)
	}

	var pr protocol.PingResult
	if err := protocol.DecodeResult(resp, &pr); err != nil {
		t.Fatalf("DecodeResult() error = %v", err)
	}
	if !pr.Ready {
		t.Error("Ready = false, want true")
	}
}

func TestCallToMissingWorkerFails(t *testing.T) {
	rt := New()

	req, _ := protocol.NewRequest(protocol.KindPing, nil)
	_, err := rt.Call(testCtx(t), EndpointWorker, req)
	if !errors.Is(err, ErrNoReceiver) {
		t.Errorf("Call() error = %v, want ErrNoReceiver", err)
	}
}

func TestCreateWorkerIsSingleton(t *testing.T) {
	rt := New()
	var built atomic.Int32
	rt.SetWorkerFactory(func(*Runtime) (Handler, error) {
		built.Add(1)
		return pingHandler(), nil
	})

	if err := rt.CreateWorker(); err != nil {
		t.Fatalf("CreateWorker() error = %v", err)
	}
	if err := rt.CreateWorker(); !errors.Is(err, ErrWorkerExists) {
		t.Errorf("second CreateWorker() error = %v, want ErrWorkerExists", err)
	}
	if built.Load() != 1 {
		t.Errorf("factory ran %d times, want 1", built.Load())
	}
}

func TestCreateWorkerRaceAllowsExactlyOne(t *testing.T) {
	rt := New()
	var built atomic.Int32
	rt.SetWorkerFactory(func(*Runtime) (Handler, error) {
		built.Add(1)
		return pingHandler(), nil
	})

	var won, lost atomic.Int32
	var eg errgroup.Group
	for i := 0; i < 16; i++ {
		eg.Go(func() error {
			switch err := rt.CreateWorker(); {
			case err == nil:
				won.Add(1)
			case errors.Is(err, ErrWorkerExists):
				lost.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		t.Fatalf("CreateWorker() error = %v", err)
	}
	if won.Load() != 1 {
		t.Errorf("%d creators won, want 1", won.Load())
	}
	if lost.Load() != 15 {
		t.Errorf("%d creators lost, want 15", lost.Load())
	}
	if built.Load() != 1 {
		t.Errorf("factory ran %d times, want 1", built.Load())
	}
}

func TestCreateWorkerWithoutFactory(t *testing.T) {
	rt := New()
	if err := rt.CreateWorker(); !errors.Is(err, ErrNoWorkerFactory) {
		t.Errorf("CreateWorker() error = %v, want ErrNoWorkerFactory", err)
	}
}

func TestCoordinatorRevivedOnDemand(t *testing.T) {
	rt := New()
	var incarnations atomic.Int32
	rt.SetCoordinatorFactory(func(*Runtime) Handler {
		incarnations.Add(1)
		return pingHandler()
	})

	if rt.CoordinatorResident() {
		t.Fatal("coordinator resident before any frame")
	}

	req, _ := protocol.NewRequest(protocol.KindCheckStatus, nil)
	if _, err := rt.Call(testCtx(t), EndpointCoordinator, req); err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if incarnations.Load() != 1 {
		t.Fatalf("incarnations = %d, want 1", incarnations.Load())
	}
	if !rt.CoordinatorResident() {
		t.Fatal("coordinator not resident after frame")
	}

	// A second frame reuses the resident incarnation.
	req2, _ := protocol.NewRequest(protocol.KindCheckStatus, nil)
	if _, err := rt.Call(testCtx(t), EndpointCoordinator, req2); err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if incarnations.Load() != 1 {
		t.Errorf("incarnations = %d, want 1", incarnations.Load())
	}

	rt.SuspendCoordinator()
	if rt.CoordinatorResident() {
		t.Fatal("coordinator still resident after suspend")
	}

	req3, _ := protocol.NewRequest(protocol.KindCheckStatus, nil)
	if _, err := rt.Call(testCtx(t), EndpointCoordinator, req3); err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if incarnations.Load() != 2 {
		t.Errorf("incarnations = %d, want 2 after suspend", incarnations.Load())
	}
}

func TestCallWithoutCoordinatorFactoryFails(t *testing.T) {
	rt := New()
	req, _ := protocol.NewRequest(protocol.KindCheckStatus, nil)
	_, err := rt.Call(testCtx(t), EndpointCoordinator, req)
	if !errors.Is(err, ErrNoReceiver) {
		t.Errorf("Call() error = %v, want ErrNoReceiver", err)
	}
}

func TestNotifyDeliversSignals(t *testing.T) {
	rt := New()
	got := make(chan protocol.Kind, 1)
	rt.SetCoordinatorFactory(func(*Runtime) Handler {
		return handlerFunc(func(_ context.Context, req *protocol.Request) *protocol.Response {
			got <- req.Kind
			return nil
		})
	})

	req, _ := protocol.NewRequest(protocol.KindReadySignal, nil)
	if err := rt.Notify(EndpointCoordinator, req); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	select {
	case kind := <-got:
		if kind != protocol.KindReadySignal {
			t.Errorf("delivered kind = %q, want %q", kind, protocol.KindReadySignal)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("signal never delivered")
	}
}

type stoppableHandler struct {
	Handler
	stopped atomic.Bool
}

func (h *stoppableHandler) Stop() {
	h.stopped.Store(true)
}

func TestDestroyWorkerStopsHandler(t *testing.T) {
	rt := New()
	h := &stoppableHandler{Handler: pingHandler()}
	rt.SetWorkerFactory(func(*Runtime) (Handler, error) { return h, nil })
	if err := rt.CreateWorker(); err != nil {
		t.Fatalf("CreateWorker() error = %v", err)
	}

	rt.DestroyWorker()

	if !h.stopped.Load() {
		t.Error("worker handler not stopped")
	}
	if rt.WorkerExists() {
		t.Error("WorkerExists() = true after destroy")
	}

	req, _ := protocol.NewRequest(protocol.KindPing, nil)
	if _, err := rt.Call(testCtx(t), EndpointWorker, req); !errors.Is(err, ErrNoReceiver) {
		t.Errorf("Call() after destroy error = %v, want ErrNoReceiver", err)
	}
}

func TestCallRejectsDuplicateInFlightID(t *testing.T) {
	rt := New()
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	rt.SetWorkerFactory(func(*Runtime) (Handler, error) {
		return handlerFunc(func(_ context.Context, req *protocol.Request) *protocol.Response {
			started <- struct{}{}
			<-release
			resp, _ := protocol.OKResponse(req, nil)
			return resp
		}), nil
	})
	if err := rt.CreateWorker(); err != nil {
		t.Fatalf("CreateWorker() error = %v", err)
	}

	req, _ := protocol.NewRequest(protocol.KindPing, nil)
	first := make(chan error, 1)
	go func() {
		_, err := rt.Call(testCtx(t), EndpointWorker, req)
		first <- err
	}()
	<-started

	_, err := rt.Call(testCtx(t), EndpointWorker, req)
	if !errors.Is(err, ErrDuplicateID) {
		t.Errorf("second Call() error = %v, want ErrDuplicateID", err)
	}

	close(release)
	if err := <-first; err != nil {
		t.Errorf("first Call() error = %v", err)
	}
}

func TestCallHonorsContext(t *testing.T) {
	rt := New()
	rt.SetWorkerFactory(func(*Runtime) (Handler, error) {
		return handlerFunc(func(_ context.Context, req *protocol.Request) *protocol.Response {
			time.Sleep(time.Second)
			resp, _ := protocol.OKResponse(req, nil)
			return resp
		}), nil
	})
	if err := rt.CreateWorker(); err != nil {
		t.Fatalf("CreateWorker() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	req, _ := protocol.NewRequest(protocol.KindPing, nil)
	_, err := rt.Call(ctx, EndpointWorker, req)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Call() error = %v, want context.DeadlineExceeded", err)
	}
}
