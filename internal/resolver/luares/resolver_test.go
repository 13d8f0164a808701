package luares

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/tendril-dev/tendril/internal/resolver"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newTestResolver(t *testing.T, opts ...Option) *Resolver {
	t.Helper()
	r, err := New(opts...)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(r.Close)
	return r
}

func TestTryActivateSingleFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "greeter.lua"), `
		activated = "greeter"
		local M = {}
		return M
	`)

	r := newTestResolver(t, WithRoots(root))

	mod, err := r.TryActivate(context.Background(), "greeter")
	if err != nil {
		t.Fatalf("TryActivate returned error: %v", err)
	}
	if mod.Name() != "greeter" {
		t.Errorf("module name = %q, want %q", mod.Name(), "greeter")
	}
	if got := r.GlobalString("activated"); got != "greeter" {
		t.Errorf("activation side effect = %q, want %q", got, "greeter")
	}
}

func TestTryActivateInitFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "lua", "deep", "init.lua"), `return {}`)

	r := newTestResolver(t, WithRoots(root))

	if _, err := r.TryActivate(context.Background(), "deep"); err != nil {
		t.Fatalf("TryActivate returned error: %v", err)
	}
}

func TestTryActivateMissing(t *testing.T) {
	r := newTestResolver(t, WithRoots(t.TempDir()))

	_, err := r.TryActivate(context.Background(), "ghost")
	if !errors.Is(err, resolver.ErrModuleNotFound) {
		t.Errorf("TryActivate error = %v, want ErrModuleNotFound", err)
	}
}

func TestTryActivateRunsOnce(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "counter.lua"), `
		count = (count or 0) + 1
		return {}
	`)

	r := newTestResolver(t, WithRoots(root))
	ctx := context.Background()

	first, err := r.TryActivate(ctx, "counter")
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.TryActivate(ctx, "counter")
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("repeat activation should return the cached module")
	}
	if got := r.GlobalString("count"); got != "1" {
		t.Errorf("module chunk ran %s times, want 1", got)
	}
}

func TestConfigurableCapability(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "withsetup.lua"), `
		local M = {}
		function M.setup(opts)
			configured_width = opts.width
			configured_theme = opts.theme
		end
		return M
	`)
	writeFile(t, filepath.Join(root, "plain.lua"), `return {}`)

	r := newTestResolver(t, WithRoots(root))
	ctx := context.Background()

	mod, err := r.TryActivate(ctx, "withsetup")
	if err != nil {
		t.Fatal(err)
	}
	cfg, ok := mod.(resolver.Configurable)
	if !ok {
		t.Fatal("module with setup function should be Configurable")
	}
	if err := cfg.Configure(map[string]any{"width": 80, "theme": "dusk"}); err != nil {
		t.Fatalf("Configure returned error: %v", err)
	}
	if got := r.GlobalString("configured_width"); got != "80" {
		t.Errorf("configured_width = %q, want 80", got)
	}
	if got := r.GlobalString("configured_theme"); got != "dusk" {
		t.Errorf("configured_theme = %q, want dusk", got)
	}

	plain, err := r.TryActivate(ctx, "plain")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := plain.(resolver.Configurable); ok {
		t.Error("module without setup should not be Configurable")
	}
}

func TestActivatePackaged(t *testing.T) {
	pack := t.TempDir()
	writeFile(t, filepath.Join(pack, "tool.nvim", "lua", "tool", "init.lua"), `return {}`)

	r := newTestResolver(t, WithPackRoot(pack))
	ctx := context.Background()

	if _, err := r.TryActivate(ctx, "tool"); err == nil {
		t.Fatal("activation should fail before the packaged dir is added")
	}
	if err := r.ActivatePackaged("tool.nvim"); err != nil {
		t.Fatalf("ActivatePackaged returned error: %v", err)
	}
	if _, err := r.TryActivate(ctx, "tool"); err != nil {
		t.Errorf("TryActivate after ActivatePackaged returned error: %v", err)
	}
}

func TestActivatePackagedMissingDir(t *testing.T) {
	r := newTestResolver(t, WithPackRoot(t.TempDir()))
	if err := r.ActivatePackaged("absent"); err == nil {
		t.Error("ActivatePackaged should fail for a missing directory")
	}
}

func TestEnsureOnSearchPath(t *testing.T) {
	extra := t.TempDir()
	writeFile(t, filepath.Join(extra, "stray.lua"), `return {}`)

	r := newTestResolver(t)
	r.EnsureOnSearchPath(extra)
	r.EnsureOnSearchPath(extra) // duplicate is a no-op

	if _, err := r.TryActivate(context.Background(), "stray"); err != nil {
		t.Errorf("TryActivate via added search path returned error: %v", err)
	}
}

func TestSandboxExcludesUnsafeLibraries(t *testing.T) {
	r := newTestResolver(t)

	if err := r.DoString(`has_io = tostring(io ~= nil); has_os = tostring(os ~= nil)`); err != nil {
		t.Fatal(err)
	}
	if r.GlobalString("has_io") != "false" {
		t.Error("io library should not be open in the sandbox")
	}
	if r.GlobalString("has_os") != "false" {
		t.Error("os library should not be open in the sandbox")
	}
}

func TestActivationError(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "broken.lua"), `error("boom")`)

	r := newTestResolver(t, WithRoots(root))

	if _, err := r.TryActivate(context.Background(), "broken"); err == nil {
		t.Error("TryActivate should surface the chunk's error")
	}
}
