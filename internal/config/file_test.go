package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleYAML = `
eager:
  - owner/statusline.nvim
  - repo: owner/theme.nvim
    settings:
      flavor: dusk
      contrast: 2
deferred:
  - repo: owner/finder.nvim
    branch: main
    commands: [Find]
    events: [BufRead]
    pattern: "*.go"
    filetypes: [go]
    after: [owner/theme.nvim]
    build: make
    requires:
      - owner/util.nvim
      - repo: owner/ui.nvim
        settings:
          border: rounded
    keys:
      "<leader>ff": {cmd: "Find", desc: "find files"}
`

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	f, err := Load(writeConfig(t, "plugins.yaml", sampleYAML))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if len(f.Eager) != 2 {
		t.Fatalf("got %d eager plugins, want 2", len(f.Eager))
	}
	if f.Eager[0].Repo != "owner/statusline.nvim" {
		t.Errorf("bare string entry repo = %q", f.Eager[0].Repo)
	}
	if f.Eager[1].Settings["flavor"] != "dusk" {
		t.Errorf("settings not decoded: %v", f.Eager[1].Settings)
	}

	if len(f.Deferred) != 1 {
		t.Fatalf("got %d deferred plugins, want 1", len(f.Deferred))
	}
	d := f.Deferred[0]
	if d.Branch != "main" || d.Pattern != "*.go" || d.Build != "make" {
		t.Errorf("scalar fields not decoded: %+v", d)
	}
	if len(d.Requires) != 2 {
		t.Fatalf("got %d requires, want 2", len(d.Requires))
	}
	if d.Requires[0].Repo != "owner/util.nvim" || d.Requires[0].Decl != nil {
		t.Errorf("bare require decoded wrong: %+v", d.Requires[0])
	}
	if d.Requires[1].Repo != "owner/ui.nvim" || d.Requires[1].Decl == nil {
		t.Fatalf("inline require decoded wrong: %+v", d.Requires[1])
	}
	if d.Requires[1].Decl.Settings["border"] != "rounded" {
		t.Errorf("inline require settings not decoded")
	}
	if d.Keys["<leader>ff"].Cmd != "Find" || d.Keys["<leader>ff"].Desc != "find files" {
		t.Errorf("keys not decoded: %+v", d.Keys)
	}
}

func TestLoadJSON(t *testing.T) {
	content := `{
		"eager": ["owner/one.nvim"],
		"deferred": [{
			"repo": "owner/two.nvim",
			"commands": ["Two"],
			"settings": {"depth": 3},
			"requires": ["owner/base", {"repo": "owner/extra", "branch": "dev"}],
			"keys": {"<leader>t": {"cmd": "Two", "desc": "toggle"}, "<leader>u": "TwoAlt"}
		}]
	}`

	f, err := Load(writeConfig(t, "plugins.json", content))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if len(f.Eager) != 1 || f.Eager[0].Repo != "owner/one.nvim" {
		t.Errorf("eager = %+v", f.Eager)
	}
	d := f.Deferred[0]
	if d.Repo != "owner/two.nvim" || len(d.Commands) != 1 {
		t.Errorf("deferred = %+v", d)
	}
	if v, ok := d.Settings["depth"].(float64); !ok || v != 3 {
		t.Errorf("settings depth = %v", d.Settings["depth"])
	}
	if len(d.Requires) != 2 || d.Requires[1].Decl == nil || d.Requires[1].Decl.Branch != "dev" {
		t.Errorf("requires = %+v", d.Requires)
	}
	if d.Keys["<leader>t"].Desc != "toggle" {
		t.Errorf("object key decl = %+v", d.Keys["<leader>t"])
	}
	if d.Keys["<leader>u"].Cmd != "TwoAlt" {
		t.Errorf("string key decl = %+v", d.Keys["<leader>u"])
	}
}

func TestLoadInvalid(t *testing.T) {
	if _, err := Load(writeConfig(t, "bad.yaml", "eager: [unclosed")); err == nil {
		t.Error("Load should fail on malformed YAML")
	}
	if _, err := Load(writeConfig(t, "bad.json", "{nope")); err == nil {
		t.Error("Load should fail on malformed JSON")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load should fail on a missing file")
	}
}

func TestEngineConfig(t *testing.T) {
	f, err := parseYAML([]byte(sampleYAML))
	if err != nil {
		t.Fatal(err)
	}

	cfg := f.EngineConfig()
	if len(cfg.Eager) != 2 || len(cfg.Deferred) != 1 {
		t.Fatalf("engine config sizes: %d eager, %d deferred", len(cfg.Eager), len(cfg.Deferred))
	}

	spec := cfg.Deferred[0].Spec
	if spec == nil {
		t.Fatal("deferred entry has no spec")
	}
	if len(spec.Requires) != 2 || spec.Requires[1].Spec == nil {
		t.Errorf("requires not converted: %+v", spec.Requires)
	}
	if spec.Keys["<leader>ff"].Cmd != "Find" {
		t.Errorf("keys not converted: %+v", spec.Keys)
	}
	if len(spec.Events) != 1 || spec.Pattern != "*.go" {
		t.Errorf("events/pattern not converted: %+v", spec)
	}
}
