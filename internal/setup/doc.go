// Package setup assembles the engine and drives the top-level setup flow:
// pre_setup, registration of the declared plugin set, post_register, eager
// loading, post_setup. Deferred plugins wait for their triggers.
package setup
