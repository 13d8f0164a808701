// Package event provides the synchronous publish/subscribe bus underneath
// the host trigger surface.
//
// Topics are dotted hierarchical names ("signal.loaded", "filetype.go").
// Subscriptions match topics with glob patterns and may be one-shot: a
// one-shot subscription disarms itself before its handler runs, which is
// what makes self-unregistering trigger callbacks safe under re-entrant
// publishing.
//
// Delivery is entirely synchronous on the publisher's goroutine. The engine
// relies on this: a trigger that initiates a plugin load runs that load to
// completion before Publish returns.
package event
