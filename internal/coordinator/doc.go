// Package coordinator orchestrates engine lifecycle between disposable
// client requests and the long-lived engine host.
//
// The coordinator itself is the disposable piece: the runtime may
// suspend it at any idle moment and revive a fresh incarnation on the
// next frame. Correctness therefore never depends on coordinator
// memory. Readiness is rebuilt three ways:
//
//   - latched signals: the engine host pushes ready-signal/error-signal
//     when startup resolves, and the resident incarnation latches the
//     outcome;
//
//   - probing: an incarnation that wakes up with no memory but finds a
//     worker already running pings it and adopts a ready answer;
//
//   - creation: when no worker exists, the incarnation requests the
//     singleton's creation and waits for its signal. Losing the creation
//     race is not an error; whoever won is starting the same engine.
//
// Concurrent EnsureEngine calls share one attempt. The attempt resolves
// exactly once (by signal, adoption, failure, or the attempt budget
// expiring) and the resolution fans out to every waiter. A resolved
// failure clears the attempt so the next ensure starts clean, while
// Ready latches for the incarnation's lifetime.
//
// Document operations pass through untouched except for re-enveloping:
// the coordinator gives the worker hop its own correlation ID and
// strips host-side diagnostic detail from relayed errors.
package coordinator
