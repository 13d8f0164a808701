package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/tendril-dev/tendril/internal/registry"
	"github.com/tendril-dev/tendril/internal/setup"
)

// ErrInvalidConfig is returned for files that cannot be parsed.
var ErrInvalidConfig = errors.New("invalid config")

// File is the on-disk declarative configuration: the eager and deferred
// plugin lists. YAML is the primary format; files ending in .json are
// accepted too.
type File struct {
	Eager    []Plugin `yaml:"eager"`
	Deferred []Plugin `yaml:"deferred"`
}

// Plugin is one declared plugin. In YAML an entry may be a bare repo
// string or a mapping with any of these fields.
type Plugin struct {
	Repo      string         `yaml:"repo"`
	Name      string         `yaml:"name"`
	Dir       string         `yaml:"dir"`
	Branch    string         `yaml:"branch"`
	Settings  map[string]any `yaml:"settings"`
	Requires  []Require      `yaml:"requires"`
	Commands  []string       `yaml:"commands"`
	Events    []string       `yaml:"events"`
	Pattern   string         `yaml:"pattern"`
	After     []string       `yaml:"after"`
	Filetypes []string       `yaml:"filetypes"`
	Keys      map[string]Key `yaml:"keys"`
	Build     string         `yaml:"build"`
}

// Key is one key binding declaration.
type Key struct {
	Cmd  string `yaml:"cmd"`
	Desc string `yaml:"desc"`
}

// Require is a dependency reference: a bare repo string, or an inline
// plugin declaration.
type Require struct {
	Repo string
	Decl *Plugin
}

// UnmarshalYAML accepts either form of a requires entry.
func (r *Require) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		return value.Decode(&r.Repo)
	}
	var p Plugin
	if err := value.Decode(&p); err != nil {
		return err
	}
	r.Repo = p.Repo
	r.Decl = &p
	return nil
}

// pluginAlias avoids UnmarshalYAML recursion.
type pluginAlias Plugin

// UnmarshalYAML accepts either a bare repo string or a full mapping.
func (p *Plugin) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		return value.Decode(&p.Repo)
	}
	var alias pluginAlias
	if err := value.Decode(&alias); err != nil {
		return err
	}
	*p = Plugin(alias)
	return nil
}

// Load reads and parses a configuration file. Format follows the file
// extension: .json is parsed as JSON, everything else as YAML.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if filepath.Ext(path) == ".json" {
		return parseJSON(data)
	}
	return parseYAML(data)
}

func parseYAML(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return &f, nil
}

func parseJSON(data []byte) (*File, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: malformed JSON", ErrInvalidConfig)
	}

	root := gjson.ParseBytes(data)
	f := &File{}
	sections := []struct {
		key string
		dst *[]Plugin
	}{
		{"eager", &f.Eager},
		{"deferred", &f.Deferred},
	}
	for _, section := range sections {
		root.Get(section.key).ForEach(func(_, item gjson.Result) bool {
			*section.dst = append(*section.dst, jsonPlugin(item))
			return true
		})
	}
	return f, nil
}

// jsonPlugin decodes one plugin declaration; a bare string is a repo.
func jsonPlugin(item gjson.Result) Plugin {
	if item.Type == gjson.String {
		return Plugin{Repo: item.String()}
	}

	p := Plugin{
		Repo:      item.Get("repo").String(),
		Name:      item.Get("name").String(),
		Dir:       item.Get("dir").String(),
		Branch:    item.Get("branch").String(),
		Pattern:   item.Get("pattern").String(),
		Build:     item.Get("build").String(),
		Commands:  jsonStrings(item.Get("commands")),
		Events:    jsonStrings(item.Get("events")),
		After:     jsonStrings(item.Get("after")),
		Filetypes: jsonStrings(item.Get("filetypes")),
	}

	if settings := item.Get("settings"); settings.Exists() {
		if m, ok := settings.Value().(map[string]any); ok {
			p.Settings = m
		}
	}

	item.Get("requires").ForEach(func(_, req gjson.Result) bool {
		if req.Type == gjson.String {
			p.Requires = append(p.Requires, Require{Repo: req.String()})
			return true
		}
		decl := jsonPlugin(req)
		p.Requires = append(p.Requires, Require{Repo: decl.Repo, Decl: &decl})
		return true
	})

	item.Get("keys").ForEach(func(chord, action gjson.Result) bool {
		if p.Keys == nil {
			p.Keys = make(map[string]Key)
		}
		if action.Type == gjson.String {
			p.Keys[chord.String()] = Key{Cmd: action.String()}
			return true
		}
		p.Keys[chord.String()] = Key{
			Cmd:  action.Get("cmd").String(),
			Desc: action.Get("desc").String(),
		}
		return true
	})

	return p
}

func jsonStrings(v gjson.Result) []string {
	if !v.Exists() {
		return nil
	}
	var out []string
	v.ForEach(func(_, item gjson.Result) bool {
		out = append(out, item.String())
		return true
	})
	return out
}

// EngineConfig converts the file into the engine's declarative surface.
func (f *File) EngineConfig() setup.Config {
	cfg := setup.Config{}
	for _, p := range f.Eager {
		cfg.Eager = append(cfg.Eager, setup.Entry{Repo: p.Repo, Spec: p.spec()})
	}
	for _, p := range f.Deferred {
		cfg.Deferred = append(cfg.Deferred, setup.Entry{Repo: p.Repo, Spec: p.spec()})
	}
	return cfg
}

// spec converts one declaration into a partial registry spec; the
// registry fills the remaining defaults.
func (p *Plugin) spec() *registry.Spec {
	s := &registry.Spec{
		Name:      p.Name,
		Dir:       p.Dir,
		Branch:    p.Branch,
		Settings:  p.Settings,
		Commands:  p.Commands,
		Events:    p.Events,
		Pattern:   p.Pattern,
		After:     p.After,
		Filetypes: p.Filetypes,
		Build:     p.Build,
	}
	for _, req := range p.Requires {
		r := registry.Require{Repo: req.Repo}
		if req.Decl != nil {
			r.Spec = req.Decl.spec()
		}
		s.Requires = append(s.Requires, r)
	}
	for chord, key := range p.Keys {
		if s.Keys == nil {
			s.Keys = make(map[string]registry.KeyAction)
		}
		s.Keys[chord] = registry.KeyAction{Cmd: key.Cmd, Desc: key.Desc}
	}
	return s
}
