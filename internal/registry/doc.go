// Package registry owns the plugin registry: the mapping from repository
// identifier to fully-defaulted spec, the transitive requirement discovery
// walk, and the wiring of deferred-loading triggers against the host.
//
// Registration is deliberately permissive. Registering a repo twice
// replaces the record (redefinition during a config reload depends on
// this), and a requirement graph with cycles or self-references registers
// each node exactly once.
package registry
