package registry

import "context"

// Kind distinguishes plugins activated during setup from plugins activated
// by a later trigger.
type Kind int

// Plugin kinds. The zero value means the declaration did not say; the
// registry defaults it to deferred.
const (
	KindUnspecified Kind = iota
	KindEager
	KindDeferred
)

// String returns a string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindEager:
		return "eager"
	case KindDeferred:
		return "deferred"
	default:
		return "unspecified"
	}
}

// Require is one dependency reference: a bare repository identifier, or an
// identifier paired with an inline spec for the dependency.
type Require struct {
	Repo string
	Spec *Spec
}

// KeyAction is what a key chord does once its plugin is loaded: dispatch a
// host command, or run a direct callback.
type KeyAction struct {
	Cmd  string
	Fn   func(ctx context.Context)
	Desc string
}

// SetupFunc is a custom activation callback replacing the default
// "configure the activated module" behavior.
type SetupFunc func(ctx context.Context, settings map[string]any) error

// Spec is one plugin's fully-defaulted registration record.
//
// Repo is the canonical identifier and registry key. Name and Dir are
// derived from it when a declaration leaves them empty. A Spec stored in
// the registry is never mutated; re-registering the same repo replaces the
// whole record.
type Spec struct {
	// Repo is the canonical identifier, e.g. "owner/name".
	Repo string

	// Name is the short identifier the module resolver activates.
	Name string

	// Dir is the on-disk directory name used for path activation. Empty
	// for non-repo plugins.
	Dir string

	// Kind says whether the plugin loads during setup or on a trigger.
	Kind Kind

	// Branch is an optional ref for the sync collaborator to track.
	Branch string

	// Settings is the opaque configuration blob handed to the plugin's
	// setup callback.
	Settings map[string]any

	// Requires lists dependencies loaded before this plugin.
	Requires []Require

	// Commands are host command names that trigger loading.
	Commands []string

	// Events are host event names that trigger loading.
	Events []string

	// Pattern restricts Events and Filetypes matching. Defaults to "*".
	Pattern string

	// After lists plugins whose finished-loading signal triggers loading.
	After []string

	// Filetypes are filetypes that trigger loading.
	Filetypes []string

	// Keys maps key chords to actions; each chord triggers loading.
	Keys map[string]KeyAction

	// Setup, when set, replaces the default configuration step.
	Setup SetupFunc

	// Build is an optional post-install command for the sync collaborator.
	Build string
}

// Clone returns a deep copy. Declarations may share tables between a
// plugin and its requires entries; the registry stores clones so callers
// never observe mutation of what they passed in.
func (s *Spec) Clone() *Spec {
	if s == nil {
		return &Spec{}
	}
	clone := *s

	clone.Settings = cloneValueMap(s.Settings)

	if s.Requires != nil {
		clone.Requires = make([]Require, len(s.Requires))
		for i, req := range s.Requires {
			clone.Requires[i] = Require{Repo: req.Repo}
			if req.Spec != nil {
				clone.Requires[i].Spec = req.Spec.Clone()
			}
		}
	}

	clone.Commands = cloneStrings(s.Commands)
	clone.Events = cloneStrings(s.Events)
	clone.After = cloneStrings(s.After)
	clone.Filetypes = cloneStrings(s.Filetypes)

	if s.Keys != nil {
		clone.Keys = make(map[string]KeyAction, len(s.Keys))
		for chord, action := range s.Keys {
			clone.Keys[chord] = action
		}
	}

	return &clone
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// cloneValueMap deep-copies a settings blob. Values are the maps, slices,
// and scalars the config decoder produces.
func cloneValueMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneValueMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
