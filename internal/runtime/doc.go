// Package runtime is the message fabric between the client surface, the
// coordinator, and the engine host worker.
//
// Endpoints exchange encoded protocol frames, never Go pointers, so
// every interaction crosses a real serialization boundary and the three
// roles stay separable into processes later.
//
// The runtime enforces two lifecycle rules:
//
//   - The worker is a singleton. CreateWorker installs it once; racing
//     creators get ErrWorkerExists. The worker survives coordinator
//     suspensions and is only removed by DestroyWorker.
//
//   - The coordinator is revivable. SuspendCoordinator throws away the
//     resident incarnation along with all of its in-memory state; the
//     next frame addressed to the coordinator endpoint constructs a
//     fresh one via the registered factory. Wake-on-message is what lets
//     readiness signals land even when nobody has asked for anything yet.
//
// Calls are correlated by envelope ID through one pending map, mirroring
// how a JSON-RPC transport matches responses to requests.
package runtime
