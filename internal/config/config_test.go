package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/deskdriver/deskdriver/internal/platform"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope", DefaultPath))
	if err == nil {
		t.Error("explicit missing path should error")
	}

	// Default path lookup tolerates absence.
	dir := t.TempDir()
	old, _ := os.Getwd()
	os.Chdir(dir)
	defer os.Chdir(old)

	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load with no file: %v", err)
	}
	if cfg.Serve.Transport != "stdio" || cfg.Serve.Port != 8080 {
		t.Errorf("defaults = %+v", cfg.Serve)
	}
	if cfg.Serve.CacheTTL() != 500*time.Millisecond {
		t.Errorf("cache ttl = %v, want 500ms", cfg.Serve.CacheTTL())
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deskdriver.yaml")
	body := `serve:
  transport: streamable-http
  port: 9000
  cache_ttl_ms: 0
logging:
  level: debug
capture:
  mode: smart
  per_op_timeout_ms: 80
  max_depth: 3
  include_all_bounds: true
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Serve.Transport != "streamable-http" || cfg.Serve.Port != 9000 {
		t.Errorf("serve = %+v", cfg.Serve)
	}
	if cfg.Serve.CacheTTL() != 0 {
		t.Errorf("cache ttl = %v, want 0", cfg.Serve.CacheTTL())
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("logging level = %q", cfg.Logging.Level)
	}

	tree, err := cfg.Capture.TreeConfig()
	if err != nil {
		t.Fatal(err)
	}
	if tree.Mode != platform.PropertyModeSmart {
		t.Errorf("mode = %v, want smart", tree.Mode)
	}
	if tree.PerOpTimeout != 80*time.Millisecond {
		t.Errorf("per-op timeout = %v", tree.PerOpTimeout)
	}
	if tree.MaxDepth == nil || *tree.MaxDepth != 3 {
		t.Errorf("max depth = %v, want 3", tree.MaxDepth)
	}
	if !tree.IncludeAllBounds {
		t.Error("include_all_bounds should carry over")
	}
}

func TestTreeConfigDefaults(t *testing.T) {
	tree, err := Capture{}.TreeConfig()
	if err != nil {
		t.Fatal(err)
	}
	if tree.Mode != platform.PropertyModeFast {
		t.Errorf("mode = %v, want fast", tree.Mode)
	}
	if tree.PerOpTimeout != platform.DefaultPerOpTimeout {
		t.Errorf("per-op timeout = %v", tree.PerOpTimeout)
	}
	if tree.MaxDepth != nil {
		t.Errorf("max depth = %v, want unlimited", *tree.MaxDepth)
	}

	if _, err := (Capture{Mode: "bogus"}).TreeConfig(); err == nil {
		t.Error("bogus mode should error")
	}
}
