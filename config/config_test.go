package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Hotkey.Combo != "ctrl+shift+space" || cfg.Hotkey.Mode != "hold" {
		t.Errorf("hotkey defaults = %+v", cfg.Hotkey)
	}
	if cfg.Audio.SampleRate != 16000 {
		t.Errorf("sample rate = %d", cfg.Audio.SampleRate)
	}
	if cfg.History.MaxItems != 50 || cfg.History.RetentionDays != 7 {
		t.Errorf("history defaults = %+v", cfg.History)
	}
	if !cfg.Paste.Enabled || !cfg.Paste.RestoreClipboard {
		t.Errorf("paste defaults = %+v", cfg.Paste)
	}
}

func TestLoadPartialOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
hotkey:
  combo: cmd+d
  mode: toggle
history:
  max_items: 10
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Hotkey.Combo != "cmd+d" || cfg.Hotkey.Mode != "toggle" {
		t.Errorf("hotkey = %+v", cfg.Hotkey)
	}
	if cfg.History.MaxItems != 10 {
		t.Errorf("max_items = %d, want 10", cfg.History.MaxItems)
	}
	// Untouched sections keep defaults.
	if cfg.History.RetentionDays != 7 {
		t.Errorf("retention_days = %d, want default 7", cfg.History.RetentionDays)
	}
	if cfg.Transcriber.Format != "flac" {
		t.Errorf("format = %q, want default flac", cfg.Transcriber.Format)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "hotkey: [unclosed"},
		{"bad combo", "hotkey:\n  combo: space\n  mode: hold\n"},
		{"bad mode", "hotkey:\n  combo: ctrl+space\n  mode: double-tap\n"},
		{"bad format", "transcriber:\n  format: mp3\n"},
		{"bad provider", "transcriber:\n  provider: whisperx\n"},
		{"zero max items", "history:\n  max_items: 0\n"},
		{"negative retention", "history:\n  retention_days: -1\n"},
		{"zero sample rate", "audio:\n  sample_rate: 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Fatal("Load succeeded, want error")
			}
		})
	}
}

func TestValidateDefaults(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}
