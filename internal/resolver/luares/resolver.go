package luares

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/tendril-dev/tendril/internal/resolver"
)

// Resolver activates plugin modules written in Lua.
//
// gopher-lua's LState is not goroutine-safe; the mutex serializes all
// access. The host trigger model is single-threaded cooperative, so in
// practice the lock is uncontended.
type Resolver struct {
	mu sync.Mutex

	state *lua.LState

	// Search roots, checked in order. EnsureOnSearchPath appends here.
	roots []string

	// Root holding packaged plugin directories; ActivatePackaged appends
	// <packRoot>/<dir> to roots.
	packRoot string

	// Activated modules by name. Activation runs a module's chunk once;
	// repeat activations return the cached module.
	active map[string]resolver.Module

	closed bool
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithRoots sets the initial module search roots.
func WithRoots(roots ...string) Option {
	return func(r *Resolver) {
		r.roots = append([]string(nil), roots...)
	}
}

// WithPackRoot sets the directory packaged plugins are activated from.
func WithPackRoot(dir string) Option {
	return func(r *Resolver) {
		r.packRoot = dir
	}
}

// New creates a Lua-backed resolver with a sandboxed interpreter.
func New(opts ...Option) (*Resolver, error) {
	r := &Resolver{
		active: make(map[string]resolver.Module),
	}
	for _, opt := range opts {
		opt(r)
	}

	L := lua.NewState(lua.Options{
		SkipOpenLibs: true, // opened selectively below
	})
	openSafeLibraries(L)
	r.state = L

	return r, nil
}

// openSafeLibraries opens only the Lua standard libraries plugin setup
// code legitimately needs. io, os, debug, and package stay closed; module
// resolution is this resolver's job, not Lua's.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// Close releases the interpreter. The resolver is unusable afterwards.
func (r *Resolver) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	r.state.Close()
}

// TryActivate implements resolver.Resolver. It locates the module source
// under the search roots, runs it once, and wraps the chunk's returned
// table as the exposed interface. A table with a setup function satisfies
// resolver.Configurable.
func (r *Resolver) TryActivate(ctx context.Context, name string) (resolver.Module, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, resolver.ErrResolverClosed
	}
	if mod, ok := r.active[name]; ok {
		return mod, nil
	}

	path, ok := r.locate(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", resolver.ErrModuleNotFound, name)
	}

	r.state.SetContext(ctx)
	defer r.state.RemoveContext()

	top := r.state.GetTop()
	if err := r.state.DoFile(path); err != nil {
		r.state.SetTop(top)
		return nil, fmt.Errorf("activating %s: %w", name, err)
	}

	// The chunk's return value, if any, is the exposed module table.
	var exposed *lua.LTable
	if r.state.GetTop() > top {
		if tbl, ok := r.state.Get(-1).(*lua.LTable); ok {
			exposed = tbl
		}
		r.state.SetTop(top)
	}

	mod := newModule(r, name, exposed)
	r.active[name] = mod
	return mod, nil
}

// EnsureOnSearchPath implements resolver.Resolver.
func (r *Resolver) EnsureOnSearchPath(dir string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, root := range r.roots {
		if root == dir {
			return
		}
	}
	r.roots = append(r.roots, dir)
}

// ActivatePackaged implements resolver.Resolver.
func (r *Resolver) ActivatePackaged(dir string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.packRoot == "" {
		return fmt.Errorf("%w: no pack root configured for %q", resolver.ErrModuleNotFound, dir)
	}
	path := filepath.Join(r.packRoot, dir)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("packaged plugin %q: %w", dir, err)
	}

	for _, root := range r.roots {
		if root == path {
			return nil
		}
	}
	r.roots = append(r.roots, path)
	return nil
}

// locate finds the source file for a module name under the search roots.
// Within each root it accepts <name>.lua, <name>/init.lua, and the same
// two shapes under a lua/ subdirectory.
func (r *Resolver) locate(name string) (string, bool) {
	candidates := []string{
		name + ".lua",
		filepath.Join(name, "init.lua"),
		filepath.Join("lua", name+".lua"),
		filepath.Join("lua", name, "init.lua"),
	}

	for _, root := range r.roots {
		for _, rel := range candidates {
			path := filepath.Join(root, rel)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path, true
			}
		}
	}
	return "", false
}

// DoString runs a Lua chunk directly. Intended for host glue and tests.
func (r *Resolver) DoString(src string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return resolver.ErrResolverClosed
	}
	return r.state.DoString(src)
}

// GlobalString returns the value of a global Lua variable rendered as a
// string, or "" when unset.
func (r *Resolver) GlobalString(name string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ""
	}
	v := r.state.GetGlobal(name)
	if v == lua.LNil {
		return ""
	}
	return v.String()
}
