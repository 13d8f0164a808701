package setup

import (
	"context"

	"github.com/tendril-dev/tendril/internal/event"
	"github.com/tendril-dev/tendril/internal/hook"
	"github.com/tendril-dev/tendril/internal/host"
	"github.com/tendril-dev/tendril/internal/loader"
	"github.com/tendril-dev/tendril/internal/notify"
	"github.com/tendril-dev/tendril/internal/registry"
	"github.com/tendril-dev/tendril/internal/resolver"
)

// Entry is one declared plugin: its repository identifier and an optional
// partial spec.
type Entry struct {
	Repo string
	Spec *registry.Spec
}

// Config is the declarative configuration surface: plugins activated
// during setup, and plugins activated later by their triggers.
type Config struct {
	Eager    []Entry
	Deferred []Entry
}

// Engine is the coordinator owning the engine's state: the hook bus, the
// host trigger surface, the registry, and the loader. Tests construct a
// fresh Engine per case; there is no process-wide instance.
type Engine struct {
	hooks    *hook.Bus
	bus      *event.Bus
	cmds     *host.Commands
	keys     *host.Keymap
	triggers *host.Triggers
	registry *registry.Registry
	loader   *loader.Loader
	notify   notify.Notifier
}

// Option configures an Engine.
type Option func(*engineOptions)

type engineOptions struct {
	res    resolver.Resolver
	notify notify.Notifier
}

// WithResolver sets the module resolver. Defaults to resolver.Null.
func WithResolver(res resolver.Resolver) Option {
	return func(o *engineOptions) { o.res = res }
}

// WithNotifier sets the notifier. Defaults to a zerolog console notifier.
func WithNotifier(n notify.Notifier) Option {
	return func(o *engineOptions) { o.notify = n }
}

// New creates a fully wired engine.
func New(opts ...Option) *Engine {
	o := engineOptions{
		res:    resolver.Null{},
		notify: notify.NewLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	e := &Engine{
		hooks:  hook.NewBus(),
		bus:    event.NewBus(),
		cmds:   host.NewCommands(),
		keys:   host.NewKeymap(),
		notify: o.notify,
	}
	e.triggers = host.NewTriggers(e.bus)
	e.registry = registry.New(e.cmds, e.keys, e.triggers, e.notify)
	e.loader = loader.New(e.registry, o.res, e.hooks, e.cmds, e.keys, e.triggers, e.notify)
	e.registry.SetLoadFunc(e.loader.Load)
	return e
}

// Hooks returns the engine's hook bus for extension registration.
func (e *Engine) Hooks() *hook.Bus { return e.hooks }

// Commands returns the host command table.
func (e *Engine) Commands() *host.Commands { return e.cmds }

// Keys returns the host keymap.
func (e *Engine) Keys() *host.Keymap { return e.keys }

// Triggers returns the host trigger surface.
func (e *Engine) Triggers() *host.Triggers { return e.triggers }

// Registry returns the plugin registry.
func (e *Engine) Registry() *registry.Registry { return e.registry }

// Loader returns the plugin loader.
func (e *Engine) Loader() *loader.Loader { return e.loader }

// Setup consumes the declarative configuration: it registers every
// declared plugin, eager and deferred alike, then loads the eager set in
// registration order. Hook firing brackets each phase.
//
// A load failure aborts the remaining eager batch and returns; it means a
// registered plugin's requirement escaped registration, which is a
// configuration bug rather than a runtime condition.
func (e *Engine) Setup(ctx context.Context, cfg Config) error {
	e.hooks.Run(hook.PreSetup, cfg)

	for _, entry := range cfg.Eager {
		e.register(entry, registry.KindEager)
	}
	for _, entry := range cfg.Deferred {
		e.register(entry, registry.KindDeferred)
	}

	e.hooks.Run(hook.PostRegister, e.registry.Snapshot())

	for _, repo := range e.registry.Names() {
		spec, ok := e.registry.Get(repo)
		if !ok || spec.Kind != registry.KindEager {
			continue
		}
		if err := e.loader.Load(ctx, repo); err != nil {
			return err
		}
	}

	e.hooks.Run(hook.PostSetup, cfg)
	return nil
}

// register marks the entry's spec with kind and hands it to the registry.
// The entry's own spec is left untouched.
func (e *Engine) register(entry Entry, kind registry.Kind) {
	spec := entry.Spec.Clone()
	spec.Kind = kind
	e.registry.Register(entry.Repo, spec)
}

// Load activates one plugin by repo, resolving its requirements first.
func (e *Engine) Load(ctx context.Context, repo string) error {
	return e.loader.Load(ctx, repo)
}
