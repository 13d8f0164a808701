package loader

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/tendril-dev/tendril/internal/hook"
	"github.com/tendril-dev/tendril/internal/host"
	"github.com/tendril-dev/tendril/internal/notify"
	"github.com/tendril-dev/tendril/internal/registry"
	"github.com/tendril-dev/tendril/internal/resolver"
)

// Specs is the registry view the loader needs.
type Specs interface {
	Get(repo string) (*registry.Spec, bool)
}

// Loader activates plugins exactly once each, dependencies first.
type Loader struct {
	mu     sync.Mutex
	loaded map[string]bool

	specs  Specs
	res    resolver.Resolver
	hooks  *hook.Bus
	cmds   *host.Commands
	keys   *host.Keymap
	trig   *host.Triggers
	notify notify.Notifier
}

// New creates a loader over the given collaborators.
func New(specs Specs, res resolver.Resolver, hooks *hook.Bus, cmds *host.Commands, keys *host.Keymap, trig *host.Triggers, n notify.Notifier) *Loader {
	if n == nil {
		n = notify.Discard{}
	}
	return &Loader{
		loaded: make(map[string]bool),
		specs:  specs,
		res:    res,
		hooks:  hooks,
		cmds:   cmds,
		keys:   keys,
		trig:   trig,
		notify: n,
	}
}

// IsLoaded reports whether repo has completed a load.
func (l *Loader) IsLoaded(repo string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded[repo]
}

// Loaded returns all loaded repos, sorted.
func (l *Loader) Loaded() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]string, 0, len(l.loaded))
	for repo := range l.loaded {
		out = append(out, repo)
	}
	sort.Strings(out)
	return out
}

// Load activates repo: requirements first, then the module itself, then
// its configuration callback and key bindings, finishing with the loaded
// signal. It is idempotent; the pre_load hook fires on every attempt, the
// rest happens at most once per repo.
//
// Loading a repo with no registry entry is a usage error: it returns
// ErrNotRegistered and performs nothing beyond the pre_load hook.
func (l *Loader) Load(ctx context.Context, repo string) error {
	l.hooks.Run(hook.PreLoad, repo)

	// Claim the slot before doing any work. A re-entrant load of the same
	// repo (a requirement cycle, or a trigger firing mid-activation) sees
	// the claim and returns instead of recursing.
	l.mu.Lock()
	if l.loaded[repo] {
		l.mu.Unlock()
		return nil
	}
	l.loaded[repo] = true
	l.mu.Unlock()

	spec, ok := l.specs.Get(repo)
	if !ok {
		// Roll the claim back so a later registration of this repo can
		// still load.
		l.mu.Lock()
		delete(l.loaded, repo)
		l.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotRegistered, repo)
	}

	// Dependencies first, in declaration order. A failing requirement is a
	// usage error and aborts this load.
	for _, req := range spec.Requires {
		if req.Repo == "" {
			continue
		}
		if err := l.Load(ctx, req.Repo); err != nil {
			return fmt.Errorf("requirement of %s: %w", repo, err)
		}
	}

	l.activate(ctx, spec)

	l.trig.EmitSignal(ctx, host.SignalPluginLoaded, repo)
	l.hooks.Run(hook.PostLoad, repo)
	return nil
}

// activate makes the plugin's module resident and runs its configuration.
// All failures in here are recoverable: they are surfaced as warnings and
// the remaining steps continue, because a plugin with no activatable
// module may still carry a setup override and key bindings worth having.
func (l *Loader) activate(ctx context.Context, spec *registry.Spec) {
	switch {
	case spec.Dir == "":
		// Non-repo plugin, no path action.
	case strings.ContainsRune(spec.Dir, '/'):
		l.res.EnsureOnSearchPath(spec.Dir)
	default:
		if err := l.res.ActivatePackaged(spec.Dir); err != nil {
			l.notify.Warnf("plugin %s: %v", spec.Repo, err)
		}
	}

	mod, err := l.res.TryActivate(ctx, spec.Name)
	if err != nil {
		l.notify.Warnf("plugin %s: %v", spec.Repo, err)
	}

	l.configure(ctx, spec, mod)
	l.bindKeys(spec)
}

// configure runs the plugin's configuration step: the declared override
// first, else the activated module's own setup capability, else nothing.
func (l *Loader) configure(ctx context.Context, spec *registry.Spec, mod resolver.Module) {
	if spec.Setup != nil {
		if err := spec.Setup(ctx, spec.Settings); err != nil {
			l.notify.Warnf("setup override for %s: %v", spec.Repo, err)
		}
		return
	}
	if c, ok := mod.(resolver.Configurable); ok {
		if err := c.Configure(spec.Settings); err != nil {
			l.notify.Warnf("configuring %s: %v", spec.Repo, err)
		}
	}
}

// bindKeys installs the plugin's key bindings directly; the plugin is
// active now, so nothing stays deferred.
func (l *Loader) bindKeys(spec *registry.Spec) {
	for chord, action := range spec.Keys {
		action := action
		l.keys.Bind(chord, func(ctx context.Context) {
			if action.Fn != nil {
				action.Fn(ctx)
				return
			}
			if action.Cmd != "" {
				if err := l.cmds.Dispatch(ctx, action.Cmd); err != nil {
					l.notify.Warnf("key %s for %s: %v", chord, spec.Repo, err)
				}
			}
		}, action.Desc)
	}
}
