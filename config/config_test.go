package config

import (
	"os"
	"path/filepath"
	"testing"

	"scrollterm/term/parser"
)

func TestLoadFileMissingYieldsDefaults(t *testing.T) {
	cfg := LoadFile(filepath.Join(t.TempDir(), "nope.json"))
	if cfg != Default() {
		t.Errorf("want defaults, got %+v", cfg)
	}
}

func TestLoadFileBrokenYieldsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scrollterm.json")
	os.WriteFile(path, []byte("{not json"), 0o644)
	if cfg := LoadFile(path); cfg != Default() {
		t.Errorf("want defaults, got %+v", cfg)
	}
}

func TestLoadFilePartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scrollterm.json")
	os.WriteFile(path, []byte(`{"font_size": 18, "background_opacity": 3}`), 0o644)
	cfg := LoadFile(path)
	if cfg.FontSize != 18 {
		t.Errorf("font size = %v", cfg.FontSize)
	}
	if cfg.ScrollbackLines != Default().ScrollbackLines {
		t.Errorf("missing fields should keep defaults, got %d", cfg.ScrollbackLines)
	}
	if cfg.BackgroundOpacity != 1 {
		t.Errorf("opacity should clamp to 1, got %v", cfg.BackgroundOpacity)
	}
}

func TestToPalette(t *testing.T) {
	cfg := Default()
	cfg.Palette.ANSI[1] = "#AA0000"
	cfg.Palette.Foreground = "#ABCDEF"
	pal, err := cfg.ToPalette()
	if err != nil {
		t.Fatalf("ToPalette: %v", err)
	}
	if pal.ANSI[1] != (parser.RGB{R: 0xAA, G: 0, B: 0}) {
		t.Errorf("ansi[1] = %+v", pal.ANSI[1])
	}
	if pal.Foreground != (parser.RGB{R: 0xAB, G: 0xCD, B: 0xEF}) {
		t.Errorf("foreground = %+v", pal.Foreground)
	}
	// Untouched entries keep the builtin palette.
	if pal.ANSI[2] != parser.DefaultPalette().ANSI[2] {
		t.Errorf("ansi[2] = %+v", pal.ANSI[2])
	}

	cfg.Palette.ANSI[3] = "bogus"
	if _, err := cfg.ToPalette(); err == nil {
		t.Error("want error for bad hex entry")
	}
}
