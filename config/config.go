// Package config loads settings from a yaml file. A missing file yields
// defaults; flags and environment variables layer on top in main.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/whatiskadudoing/koe/hotkey"
)

type Config struct {
	Hotkey      HotkeyConfig      `yaml:"hotkey"`
	Audio       AudioConfig       `yaml:"audio"`
	Transcriber TranscriberConfig `yaml:"transcriber"`
	History     HistoryConfig     `yaml:"history"`
	Paste       PasteConfig       `yaml:"paste"`
	Sound       SoundConfig       `yaml:"sound"`
}

type HotkeyConfig struct {
	Combo string `yaml:"combo"`
	Mode  string `yaml:"mode"` // hold or toggle
}

type AudioConfig struct {
	SampleRate int    `yaml:"sample_rate"`
	Device     string `yaml:"device"` // name substring, empty = ask or default
}

type TranscriberConfig struct {
	Provider string `yaml:"provider"` // groq, openai, deepgram, auto
	Language string `yaml:"language"` // hint, empty = auto-detect
	Format   string `yaml:"format"`   // flac or wav
}

type HistoryConfig struct {
	Path          string `yaml:"path"`
	MaxItems      int    `yaml:"max_items"`
	RetentionDays int    `yaml:"retention_days"`
}

type PasteConfig struct {
	Enabled          bool `yaml:"enabled"`
	RestoreClipboard bool `yaml:"restore_clipboard"`
}

type SoundConfig struct {
	Enabled bool `yaml:"enabled"`
}

func Default() Config {
	return Config{
		Hotkey: HotkeyConfig{
			Combo: "ctrl+shift+space",
			Mode:  "hold",
		},
		Audio: AudioConfig{
			SampleRate: 16000,
		},
		Transcriber: TranscriberConfig{
			Provider: "auto",
			Format:   "flac",
		},
		History: HistoryConfig{
			MaxItems:      50,
			RetentionDays: 7,
		},
		Paste: PasteConfig{
			Enabled:          true,
			RestoreClipboard: true,
		},
		Sound: SoundConfig{
			Enabled: true,
		},
	}
}

// DefaultPath is the per-user config file location.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "koe", "config.yaml"), nil
}

// DefaultHistoryPath is where history.db lives when the config does not
// name one.
func DefaultHistoryPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "koe", "history.db"), nil
}

// Load reads the config at path. A missing file is not an error: defaults
// are returned. Set fields replace defaults; absent fields keep them.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return Config{}, fmt.Errorf("resolving config path: %w", err)
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, cfg.fillHistoryPath()
		}
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, cfg.fillHistoryPath()
}

func (c *Config) fillHistoryPath() error {
	if c.History.Path != "" {
		return nil
	}
	p, err := DefaultHistoryPath()
	if err != nil {
		return fmt.Errorf("resolving history path: %w", err)
	}
	c.History.Path = p
	return nil
}

func (c *Config) Validate() error {
	if _, err := hotkey.ParseCombo(c.Hotkey.Combo); err != nil {
		return err
	}
	switch c.Hotkey.Mode {
	case "hold", "toggle":
	default:
		return fmt.Errorf("hotkey mode must be hold or toggle, got %q", c.Hotkey.Mode)
	}
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", c.Audio.SampleRate)
	}
	switch c.Transcriber.Format {
	case "flac", "wav":
	default:
		return fmt.Errorf("audio format must be flac or wav, got %q", c.Transcriber.Format)
	}
	switch c.Transcriber.Provider {
	case "auto", "", "groq", "openai", "deepgram":
	default:
		return fmt.Errorf("unknown provider %q", c.Transcriber.Provider)
	}
	if c.History.MaxItems <= 0 {
		return fmt.Errorf("history max_items must be positive, got %d", c.History.MaxItems)
	}
	if c.History.RetentionDays <= 0 {
		return fmt.Errorf("history retention_days must be positive, got %d", c.History.RetentionDays)
	}
	return nil
}
