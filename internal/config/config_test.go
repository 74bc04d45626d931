package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if *cfg != *Default() {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
asset_root: assets
log_level: debug
window:
  width: 320
debug_objects: true
`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.AssetRoot != "assets" || !cfg.DebugObjects {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Window.Width != 320 || cfg.Window.Height != 640 || cfg.Window.Scale != 1 {
		t.Errorf("window = %+v, want 320x640 at scale 1", cfg.Window)
	}
	if cfg.Level() != zerolog.DebugLevel {
		t.Errorf("level = %v, want debug", cfg.Level())
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"yaml", "window: [1, 2"},
		{"level", "log_level: loud"},
		{"size", "window: {width: 0}"},
		{"scale", "window: {scale: -2}"},
	}
	for _, tt := range tests {
		if _, err := Load(writeConfig(t, tt.body)); err == nil {
			t.Errorf("%s: expected an error", tt.name)
		}
	}
}
