// Copyright © 2026 scrollterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/config.go
// Summary: Typed JSON configuration for the terminal core.

package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"scrollterm/term/parser"
)

const configName = "scrollterm.json"

// Config is the terminal core configuration.
type Config struct {
	ScrollbackLines   int     `json:"scrollback_lines"`
	FontSize          float64 `json:"font_size"`
	FontFamily        string  `json:"font_family"`
	Palette           Palette `json:"palette"`
	Vsync             bool    `json:"vsync"`
	BackgroundOpacity float64 `json:"background_opacity"`
}

// Palette is the JSON form of the 16 ANSI colors plus defaults, each a
// "#RRGGBB" literal. Empty entries fall back to the builtin palette.
type Palette struct {
	ANSI       [16]string `json:"ansi"`
	Foreground string     `json:"foreground"`
	Background string     `json:"background"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		ScrollbackLines:   2000,
		FontSize:          14,
		FontFamily:        "monospace",
		Vsync:             true,
		BackgroundOpacity: 1.0,
	}
}

// Path returns the per-user config file location.
func Path() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "scrollterm", configName), nil
}

// Load reads the config from its default location. A missing or broken
// file yields the defaults; parse failures are logged, not fatal.
func Load() Config {
	path, err := Path()
	if err != nil {
		log.Printf("Config: no user config dir: %v", err)
		return Default()
	}
	return LoadFile(path)
}

// LoadFile reads a config file, applying defaults for absent fields.
func LoadFile(path string) Config {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Config: read %s: %v", path, err)
		}
		return cfg
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		log.Printf("Config: parse %s: %v, using defaults", path, err)
		return Default()
	}
	cfg.sanitize()
	return cfg
}

// Save writes the config to its default location, creating the
// directory if needed.
func (c Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ToPalette resolves the hex entries into a concrete palette.
func (c Config) ToPalette() (parser.Palette, error) {
	pal := parser.DefaultPalette()
	for i, hex := range c.Palette.ANSI {
		if hex == "" {
			continue
		}
		rgb, err := parser.FromHex(hex)
		if err != nil {
			return pal, fmt.Errorf("config: palette entry %d: %w", i, err)
		}
		pal.ANSI[i] = rgb
	}
	if c.Palette.Foreground != "" {
		rgb, err := parser.FromHex(c.Palette.Foreground)
		if err != nil {
			return pal, fmt.Errorf("config: foreground: %w", err)
		}
		pal.Foreground = rgb
	}
	if c.Palette.Background != "" {
		rgb, err := parser.FromHex(c.Palette.Background)
		if err != nil {
			return pal, fmt.Errorf("config: background: %w", err)
		}
		pal.Background = rgb
	}
	return pal, nil
}

func (c *Config) sanitize() {
	if c.ScrollbackLines <= 0 {
		c.ScrollbackLines = Default().ScrollbackLines
	}
	if c.FontSize <= 0 {
		c.FontSize = Default().FontSize
	}
	if c.BackgroundOpacity < 0 {
		c.BackgroundOpacity = 0
	}
	if c.BackgroundOpacity > 1 {
		c.BackgroundOpacity = 1
	}
}
