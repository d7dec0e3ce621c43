// Copyright © 2026 scrollterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: term/parser/palette.go
// Summary: 24-bit color type and the xterm 256-color palette.

package parser

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// RGB is a 24-bit color triple with no alpha.
type RGB struct {
	R, G, B uint8
}

// FromHex parses a "#RRGGBB" literal.
func FromHex(s string) (RGB, error) {
	var r, g, b uint8
	if len(s) != 7 || s[0] != '#' {
		return RGB{}, fmt.Errorf("invalid hex color %q", s)
	}
	if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b); err != nil {
		return RGB{}, fmt.Errorf("invalid hex color %q", s)
	}
	return RGB{r, g, b}, nil
}

// Hex formats the color as an uppercase "#RRGGBB" literal.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// Blend linearly interpolates between a and b. t is clamped to [0,1] and
// channels are rounded to nearest.
func Blend(a, b RGB, t float64) RGB {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	lerp := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return RGB{lerp(a.R, b.R), lerp(a.G, b.G), lerp(a.B, b.B)}
}

// Luminance returns the relative luminance in [0,1].
func (c RGB) Luminance() float64 {
	return (0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)) / 255
}

// Linear converts the sRGB channels to linear light, for GPU consumption.
func (c RGB) Linear() (r, g, b float64) {
	return colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}.LinearRgb()
}

// Palette holds the 16 named ANSI colors plus the terminal defaults. The
// 240-entry xterm extension is computed, not stored.
type Palette struct {
	ANSI       [16]RGB
	Foreground RGB
	Background RGB
}

// DefaultPalette returns the standard xterm palette.
func DefaultPalette() Palette {
	p := Palette{
		ANSI: [16]RGB{
			{0, 0, 0},       // Black
			{128, 0, 0},     // Maroon
			{0, 128, 0},     // Green
			{128, 128, 0},   // Olive
			{0, 0, 128},     // Navy
			{128, 0, 128},   // Purple
			{0, 128, 128},   // Teal
			{192, 192, 192}, // Silver
			{128, 128, 128}, // Grey
			{255, 0, 0},     // Red
			{0, 255, 0},     // Lime
			{255, 255, 0},   // Yellow
			{0, 0, 255},     // Blue
			{255, 0, 255},   // Fuchsia
			{0, 255, 255},   // Aqua
			{255, 255, 255}, // White
		},
	}
	p.Foreground = p.ANSI[15]
	p.Background = p.ANSI[0]
	return p
}

// Index resolves an xterm 256-color index to concrete channels.
// 0-15 are the named entries, 16-231 the 6x6x6 cube, 232-255 grayscale.
func (p Palette) Index(i uint8) RGB {
	switch {
	case i < 16:
		return p.ANSI[i]
	case i < 232:
		level := func(n uint8) uint8 {
			if n == 0 {
				return 0
			}
			return 40*n + 55
		}
		v := i - 16
		return RGB{level(v / 36), level((v / 6) % 6), level(v % 6)}
	default:
		gray := 10*(i-232) + 8
		return RGB{gray, gray, gray}
	}
}

// Resolve maps a style color to concrete channels. fg selects which
// default applies when the color is ColorModeDefault.
func (p Palette) Resolve(c Color, fg bool) RGB {
	switch c.Mode {
	case ColorModeStandard:
		return p.ANSI[c.Value&0x0f]
	case ColorMode256:
		return p.Index(c.Value)
	case ColorModeRGB:
		return c.RGB
	default:
		if fg {
			return p.Foreground
		}
		return p.Background
	}
}
