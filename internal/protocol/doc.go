// Package protocol defines the message frames exchanged between the
// client surface, the coordinator, and the engine host.
//
// Every message is a JSON envelope. Requests carry an ID, a kind, and an
// optional payload; responses echo the ID and carry either a payload or a
// structured error. IDs are time-ordered UUIDs, so a single correlation
// map can serve every in-flight call in the process.
//
// Two kinds are one-way signals rather than calls: ready-signal and
// error-signal, pushed by the engine host when asynchronous startup
// resolves. Their delivery must not depend on anyone waiting, which is
// why they have no response envelope at all.
//
// Frames are classified before decoding: a frame with a "kind" field is a
// request, one with an "ok" field is a response. Structural validation
// happens at decode time and malformed input surfaces as invalid-request
// errors, never as panics.
package protocol
