package coordinator

// State is the coordinator's in-memory view of engine readiness. It is
// deliberately volatile: every coordinator incarnation starts over at
// StateUninitialized and rebuilds its view from probes and signals.
type State int32

const (
	// StateUninitialized: no attempt has run in this incarnation.
	StateUninitialized State = iota
	// StateInitializing: an ensure attempt is in flight.
	StateInitializing
	// StateReady: the engine answered or signaled ready. Latched until
	// the incarnation dies.
	StateReady
	// StateFailed: the last attempt resolved with an error or timed out.
	// The next ensure starts a fresh attempt.
	StateFailed
)

// String returns the state name used in status payloads and logs.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
