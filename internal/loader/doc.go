// Package loader implements the idempotent, dependency-ordered plugin
// activation routine.
//
// A plugin moves through exactly two states, unloaded and loaded, and the
// transition is one-way. The loaded set is claimed before any work runs,
// which is what keeps arbitrary re-entrant triggering and requirement
// cycles from activating the same plugin twice: the second entry into a
// cycle observes the claim and returns. The pre_load hook fires on every
// attempt, loaded or not, so extensions can observe each one.
package loader
