// Package config loads CLI settings from a TOML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// DefaultFile is the config file name looked up in the working directory.
const DefaultFile = "sheets.toml"

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config holds the CLI settings. zero values are replaced by defaults.
type Config struct {
	Workbook   string `toml:"workbook"`
	SnapshotDB string `toml:"snapshot_db"`
	LogLevel   string `toml:"log_level"`
	LogFormat  string `toml:"log_format"`
	Color      string `toml:"color"`
}

// Default returns the settings used when no file is present.
func Default() Config {
	return Config{
		Workbook:   "workbook.json",
		SnapshotDB: "snapshots.db",
		LogLevel:   "warn",
		LogFormat:  "text",
		Color:      ColorAuto,
	}
}

// Load reads path over the defaults. a missing file is not an error.
// relative paths in the file are resolved against the file's directory.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading %s: %w", path, err)
	}

	var file Config
	if _, err := toml.Decode(string(data), &file); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	merge(&cfg, file)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if file.Workbook != "" {
		cfg.Workbook = resolve(dir, cfg.Workbook)
	}
	if file.SnapshotDB != "" {
		cfg.SnapshotDB = resolve(dir, cfg.SnapshotDB)
	}
	return cfg, nil
}

// Validate checks the enumerated settings.
func (c Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log_format %q", c.LogFormat)
	}
	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("unknown color %q", c.Color)
	}
	return nil
}

// merge applies the non-zero values of override onto base.
func merge(base *Config, override Config) {
	if override.Workbook != "" {
		base.Workbook = override.Workbook
	}
	if override.SnapshotDB != "" {
		base.SnapshotDB = override.SnapshotDB
	}
	if override.LogLevel != "" {
		base.LogLevel = override.LogLevel
	}
	if override.LogFormat != "" {
		base.LogFormat = override.LogFormat
	}
	if override.Color != "" {
		base.Color = override.Color
	}
}

func resolve(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
