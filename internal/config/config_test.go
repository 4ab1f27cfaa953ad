package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine != DefaultEngine {
		t.Errorf("expected engine %q, got %q", DefaultEngine, cfg.Engine)
	}
	if cfg.DumpIR || cfg.Cache.Enabled {
		t.Error("defaults must leave dump-ir and cache off")
	}
}

func TestLoadYaml(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	content := "dump_ir: true\nengine: interp\ncache:\n  enabled: true\n  path: /tmp/minicc-cache.db\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.DumpIR {
		t.Error("expected dump_ir true")
	}
	if !cfg.Cache.Enabled || cfg.Cache.Path != "/tmp/minicc-cache.db" {
		t.Errorf("unexpected cache config: %+v", cfg.Cache)
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("dump_ir: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Discover(filepath.Join(dir, "main.mc"))
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if !cfg.DumpIR {
		t.Error("expected the sibling minicc.yaml to be picked up")
	}
}
