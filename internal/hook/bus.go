// Package hook implements the named extension points the engine fires at
// each phase of registration and loading.
//
// A fixed set of hook names exists from construction: pre_setup, post_setup,
// post_register, pre_load, post_load. Extension code that wants its own
// phase (a sync subsystem firing "post_sync", say) must declare the name
// before anything registers against it.
//
// Callbacks run unguarded. The bus does not recover panics or collect
// errors; extensions are co-resident code, not sandboxed plugins, and a
// misbehaving callback aborts whichever phase fired it.
package hook

import "sync"

// Built-in hook names.
const (
	PreSetup     = "pre_setup"
	PostSetup    = "post_setup"
	PostRegister = "post_register"
	PreLoad      = "pre_load"
	PostLoad     = "post_load"
)

// Func is a hook callback. Every callback registered under a name receives
// the same arguments when that name fires.
type Func func(args ...any)

// Bus is an ordered registry of callbacks per hook name.
// Each coordinator owns its own Bus; there is no process-wide instance.
type Bus struct {
	mu    sync.RWMutex
	hooks map[string][]Func
}

// NewBus creates a bus with the built-in hook names declared.
func NewBus() *Bus {
	return &Bus{
		hooks: map[string][]Func{
			PreSetup:     nil,
			PostSetup:    nil,
			PostRegister: nil,
			PreLoad:      nil,
			PostLoad:     nil,
		},
	}
}

// Declare adds a new hook name with no callbacks. It returns false if the
// name is already declared, leaving the existing sequence intact.
func (b *Bus) Declare(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.hooks[name]; ok {
		return false
	}
	b.hooks[name] = nil
	return true
}

// Declared reports whether a hook name exists.
func (b *Bus) Declared(name string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	_, ok := b.hooks[name]
	return ok
}

// Register appends fn to the named hook's callback sequence. It returns
// false without effect when the name has not been declared; callers that
// need a hard failure must check the result.
func (b *Bus) Register(name string, fn Func) bool {
	if fn == nil {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.hooks[name]; !ok {
		return false
	}
	b.hooks[name] = append(b.hooks[name], fn)
	return true
}

// Run fires every callback registered under name, in registration order,
// each receiving args. Unknown names fire nothing.
func (b *Bus) Run(name string, args ...any) {
	b.mu.RLock()
	fns := make([]Func, len(b.hooks[name]))
	copy(fns, b.hooks[name])
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(args...)
	}
}

// Count returns the number of callbacks registered under name.
func (b *Bus) Count(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.hooks[name])
}
