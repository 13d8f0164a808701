package registry

import (
	"context"
	"errors"
	"sync"

	"github.com/tendril-dev/tendril/internal/host"
	"github.com/tendril-dev/tendril/internal/naming"
	"github.com/tendril-dev/tendril/internal/notify"
)

// ErrNoLoader is returned by trigger wiring when the registry has no load
// function attached yet.
var ErrNoLoader = errors.New("registry has no load function")

// LoadFunc initiates a plugin load. The loader provides it; the registry
// declares the type locally to avoid importing the loader.
type LoadFunc func(ctx context.Context, repo string) error

// Registry maps repository identifiers to fully-defaulted specs and wires
// each spec's deferred-loading triggers against the host.
type Registry struct {
	mu    sync.RWMutex
	specs map[string]*Spec
	order []string // registration order, for deterministic eager iteration

	cmds   *host.Commands
	keys   *host.Keymap
	trig   *host.Triggers
	notify notify.Notifier

	load LoadFunc
}

// New creates an empty registry wired to the host trigger surface.
func New(cmds *host.Commands, keys *host.Keymap, trig *host.Triggers, n notify.Notifier) *Registry {
	if n == nil {
		n = notify.Discard{}
	}
	return &Registry{
		specs:  make(map[string]*Spec),
		cmds:   cmds,
		keys:   keys,
		trig:   trig,
		notify: n,
	}
}

// SetLoadFunc attaches the load function triggers call back into. Must be
// set before the first trigger can fire.
func (r *Registry) SetLoadFunc(fn LoadFunc) {
	r.mu.Lock()
	r.load = fn
	r.mu.Unlock()
}

// Register stores a fully-defaulted clone of spec under repo, overwriting
// any prior entry, then walks its requires and registers every transitively
// reachable plugin that has no entry yet. An empty repo is rejected with a
// user warning.
//
// The walk is an explicit worklist rather than call-stack recursion: each
// repo is stored before its requirements are visited and only unseen repos
// are enqueued, so self-referential and mutually-referential requirement
// graphs terminate after visiting each node once.
func (r *Registry) Register(repo string, spec *Spec) {
	if repo == "" {
		r.notify.Warnf("plugin registration with empty repo ignored")
		return
	}

	type workItem struct {
		repo       string
		spec       *Spec
		discovered bool // found via requires; does not overwrite
	}

	queue := []workItem{{repo: repo, spec: spec}}
	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		if item.repo == "" {
			r.notify.Warnf("plugin requirement with empty repo ignored")
			continue
		}
		if item.discovered && r.Has(item.repo) {
			continue
		}

		stored := r.store(item.repo, item.spec)

		for _, req := range stored.Requires {
			if req.Repo == "" || r.Has(req.Repo) {
				continue
			}
			queue = append(queue, workItem{repo: req.Repo, spec: req.Spec, discovered: true})
		}

		r.wireTriggers(stored)
	}
}

// store clones, defaults, and saves a spec. Returns the stored record.
func (r *Registry) store(repo string, spec *Spec) *Spec {
	s := spec.Clone()
	s.Repo = repo
	if s.Name == "" {
		s.Name = naming.Name(repo)
	}
	if s.Dir == "" {
		s.Dir = naming.Dir(repo)
	}
	if s.Kind == KindUnspecified {
		s.Kind = KindDeferred
	}
	if s.Pattern == "" {
		s.Pattern = "*"
	}

	r.mu.Lock()
	if _, exists := r.specs[repo]; !exists {
		r.order = append(r.order, repo)
	}
	r.specs[repo] = s
	r.mu.Unlock()

	return s
}

// Get returns the stored spec for repo. The returned record must not be
// mutated.
func (r *Registry) Get(repo string) (*Spec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.specs[repo]
	return s, ok
}

// Has reports whether repo occupies a registry slot.
func (r *Registry) Has(repo string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.specs[repo]
	return ok
}

// Len returns the number of registered plugins.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.specs)
}

// Names returns all registered repos in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Snapshot returns a copy of the registry contents: repo to cloned spec.
// Hook consumers receive this, so their mutations cannot reach the
// registry.
func (r *Registry) Snapshot() map[string]*Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]*Spec, len(r.specs))
	for repo, s := range r.specs {
		out[repo] = s.Clone()
	}
	return out
}

// triggerLoad runs the attached load function, reporting failures through
// the notifier. Trigger callbacks run inside the host's dispatch and have
// no caller to return an error to.
func (r *Registry) triggerLoad(ctx context.Context, repo string) bool {
	r.mu.RLock()
	load := r.load
	r.mu.RUnlock()

	if load == nil {
		r.notify.Errorf("trigger fired for %s: %v", repo, ErrNoLoader)
		return false
	}
	if err := load(ctx, repo); err != nil {
		r.notify.Errorf("loading %s: %v", repo, err)
		return false
	}
	return true
}

// wireTriggers installs the deferred-loading triggers a stored spec
// declares: commands, events, after-relations, filetypes, and key chords.
func (r *Registry) wireTriggers(s *Spec) {
	repo := s.Repo

	for _, name := range s.Commands {
		name := name
		r.cmds.Register(name, func(ctx context.Context, args []string) {
			// One shot: remove the placeholder before loading so the
			// plugin's own registration wins the slot.
			r.cmds.Unregister(name)
			if !r.triggerLoad(ctx, repo) {
				return
			}
			if err := r.cmds.Dispatch(ctx, name, args...); err != nil {
				r.notify.Warnf("command %s after loading %s: %v", name, repo, err)
			}
		})
	}

	if len(s.Events) > 0 {
		r.trig.OnEvent(s.Events, s.Pattern, true, func(ctx context.Context, _ string) {
			r.triggerLoad(ctx, repo)
		})
	}

	for _, other := range s.After {
		r.trig.OnSignal(host.SignalPluginLoaded, other, true, func(ctx context.Context, _ string) {
			r.triggerLoad(ctx, repo)
		})
	}

	if len(s.Filetypes) > 0 {
		r.trig.OnFiletype(s.Filetypes, s.Pattern, true, func(ctx context.Context, _ string) {
			r.triggerLoad(ctx, repo)
		})
	}

	for chord := range s.Keys {
		chord := chord
		desc := s.Keys[chord].Desc
		r.keys.Bind(chord, func(ctx context.Context) {
			r.keys.Unbind(chord)
			if !r.triggerLoad(ctx, repo) {
				return
			}
			// The load bound the chord to its real action; replay the
			// chord so the keypress that triggered loading still lands.
			r.keys.Feed(ctx, chord)
		}, desc)
	}
}
