// Package host implements the editor-side trigger primitives the engine
// wires deferred loading into: a command table, a key chord map, and
// event/filetype/signal listeners built on the event bus.
//
// Every trigger delivers synchronously on the firing goroutine. A trigger
// callback that initiates a plugin load runs that load to completion before
// the firing call returns, mirroring a single-threaded cooperative host.
package host
