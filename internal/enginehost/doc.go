// Package enginehost implements the worker endpoint that owns the
// embedded document engine.
//
// The host exists because engine startup is slow and the coordinator is
// disposable: the expensive interpreter lives here, created once per
// runtime, and survives any number of coordinator suspensions. Readiness
// is pushed, not polled: when startup resolves the host sends a
// ready-signal or error-signal to the coordinator endpoint, and answers
// ping probes with its current flag for coordinators that restarted and
// missed the push.
//
// Between extract and apply the host keeps exactly one document: a
// single slot where the newest extraction wins and any apply or
// accept-all consumes it. Callers that cannot rely on the slot still
// being theirs pass fallback bytes with the request.
package enginehost
