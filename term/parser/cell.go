// Copyright © 2026 scrollterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: term/parser/cell.go
// Summary: Style, color and span types for the terminal output model.
// Usage: Consumed by the parser and by the renderers.
// Notes: Keeps parsing concerns isolated from rendering.

package parser

// Attribute is a bit set of text rendition flags.
type Attribute uint16

const (
	AttrBold Attribute = 1 << iota
	AttrDim
	AttrItalic
	AttrUnderline
	AttrSlowBlink
	AttrRapidBlink
	AttrReverse
	AttrHidden
	AttrStrikethrough
)

// String returns a human-readable representation of the attribute flags.
func (a Attribute) String() string {
	if a == 0 {
		return "none"
	}
	names := []struct {
		flag Attribute
		name string
	}{
		{AttrBold, "bold"},
		{AttrDim, "dim"},
		{AttrItalic, "italic"},
		{AttrUnderline, "underline"},
		{AttrSlowBlink, "slow-blink"},
		{AttrRapidBlink, "rapid-blink"},
		{AttrReverse, "reverse"},
		{AttrHidden, "hidden"},
		{AttrStrikethrough, "strikethrough"},
	}
	var out string
	for _, n := range names {
		if a&n.flag == 0 {
			continue
		}
		if out != "" {
			out += "|"
		}
		out += n.name
	}
	return out
}

// ColorMode defines how a Color value is interpreted.
type ColorMode int

const (
	ColorModeDefault  ColorMode = iota // Terminal default fg/bg
	ColorModeStandard                  // The 16 named ANSI colors (0-15)
	ColorMode256                       // xterm 256-color palette index
	ColorModeRGB                       // 24-bit "true" color
)

// Color represents a foreground or background color in one of several modes.
type Color struct {
	Mode  ColorMode
	Value uint8 // Index for Standard (0-15) and 256 (0-255) modes
	RGB   RGB   // Concrete channels for RGB mode
}

// Predefined default colors for convenience.
var (
	DefaultFG = Color{Mode: ColorModeDefault}
	DefaultBG = Color{Mode: ColorModeDefault}
)

// Style is the full graphic rendition applied to a run of text.
type Style struct {
	FG   Color
	BG   Color
	Attr Attribute
}

// DefaultStyle returns the style of untouched terminal output.
func DefaultStyle() Style {
	return Style{FG: DefaultFG, BG: DefaultBG}
}

// Span is a run of characters sharing one style. Immutable once emitted.
type Span struct {
	Text  string
	Style Style
}

// Line is an ordered sequence of spans, terminated by a newline event.
type Line struct {
	Spans []Span
}

// Text returns the concatenated text of all spans.
func (l Line) Text() string {
	if len(l.Spans) == 1 {
		return l.Spans[0].Text
	}
	var out string
	for _, s := range l.Spans {
		out += s.Text
	}
	return out
}
