package luares

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/tendril-dev/tendril/internal/resolver"
)

// luaModule is an activated module with no setup entry point.
type luaModule struct {
	res   *Resolver
	name  string
	table *lua.LTable
}

// Name implements resolver.Module.
func (m *luaModule) Name() string { return m.name }

// configurableModule is an activated module whose exposed table carries a
// setup function. Only this type satisfies resolver.Configurable, so the
// loader's capability check is a plain type assertion.
type configurableModule struct {
	luaModule
	setup *lua.LFunction
}

// Configure implements resolver.Configurable.
func (m *configurableModule) Configure(settings map[string]any) error {
	r := m.res
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return resolver.ErrResolverClosed
	}

	L := r.state
	if err := L.CallByParam(lua.P{
		Fn:      m.setup,
		NRet:    0,
		Protect: true,
	}, toLua(L, settings)); err != nil {
		return fmt.Errorf("setup for %s: %w", m.name, err)
	}
	return nil
}

// newModule wraps an exposed table, promoting it to a configurable module
// when the table has a setup function.
func newModule(r *Resolver, name string, table *lua.LTable) resolver.Module {
	base := luaModule{res: r, name: name, table: table}
	if table == nil {
		return &base
	}
	if fn, ok := r.state.GetField(table, "setup").(*lua.LFunction); ok {
		return &configurableModule{luaModule: base, setup: fn}
	}
	return &base
}
