// Package resolver defines the module resolver capability the loader
// activates plugins through.
//
// The engine never inspects module internals. It asks the resolver to
// activate a name, receives an opaque Module, and probes one optional
// capability: Configurable, a module exposing its own setup entry point.
// The Lua-backed implementation lives in the luares subpackage; tests use
// lightweight fakes.
package resolver

import "context"

// Module is the exposed interface of an activated plugin module.
type Module interface {
	// Name returns the module's short name.
	Name() string
}

// Configurable is the optional configuration capability. The loader checks
// for its presence, not for any particular shape, and passes the plugin's
// declared settings through.
type Configurable interface {
	Module

	// Configure invokes the module's setup entry point with settings.
	Configure(settings map[string]any) error
}

// Resolver makes plugin modules available and activates them.
type Resolver interface {
	// TryActivate activates the module named name and returns its exposed
	// interface. Activation failure returns a nil Module and an error;
	// callers treat this as recoverable.
	TryActivate(ctx context.Context, name string) (Module, error)

	// EnsureOnSearchPath appends a filesystem path to the module search
	// path. Later activations may resolve through it.
	EnsureOnSearchPath(dir string)

	// ActivatePackaged makes a packaged plugin directory available by its
	// bare directory name, the moral equivalent of a packadd.
	ActivatePackaged(dir string) error
}

// Null is a Resolver for hosts without a module tree. Every activation
// fails; path operations are no-ops.
type Null struct{}

// TryActivate implements Resolver.
func (Null) TryActivate(ctx context.Context, name string) (Module, error) {
	return nil, ErrModuleNotFound
}

// EnsureOnSearchPath implements Resolver.
func (Null) EnsureOnSearchPath(dir string) {}

// ActivatePackaged implements Resolver.
func (Null) ActivatePackaged(dir string) error { return nil }
