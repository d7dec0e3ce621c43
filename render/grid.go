// Copyright © 2026 scrollterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: render/grid.go
// Summary: Per-frame projection of styled lines onto a dense cell grid.

package render

import (
	"github.com/mattn/go-runewidth"

	"scrollterm/term/parser"
)

// Style flag bits carried per cell into the instance buffer. Reverse,
// dim and hidden are resolved on the CPU while building the grid; the
// flags below need geometry and are drawn by the fragment shader.
const (
	CellUnderline uint32 = 1 << iota
	CellStrikethrough
	CellBold
	CellItalic
	CellBlink
)

// Cell is one grid position: a code point plus resolved linear colors
// and style flags. The grid does not outlive a frame.
type Cell struct {
	Rune  rune
	FG    [4]float32
	BG    [4]float32
	Flags uint32
}

// Grid is a dense row-major sequence of cols*rows cells.
type Grid struct {
	Cells []Cell
	Cols  int
	Rows  int
}

// GridSize computes the cell dimensions for a surface, rounded down.
func GridSize(surfaceW, surfaceH int, cellW, cellH float32) (cols, rows int) {
	if cellW <= 0 || cellH <= 0 {
		return 0, 0
	}
	return int(float32(surfaceW) / cellW), int(float32(surfaceH) / cellH)
}

// BuildGrid projects the tail of the styled-text model onto a cols×rows
// grid in reading order. bgOpacity applies to cells whose background is
// the terminal default.
func BuildGrid(screen *parser.Screen, pal parser.Palette, cols, rows int, bgOpacity float32) Grid {
	g := Grid{
		Cells: make([]Cell, cols*rows),
		Cols:  cols,
		Rows:  rows,
	}
	defaultBG := linearRGBA(pal.Background, bgOpacity)
	for i := range g.Cells {
		g.Cells[i].BG = defaultBG
	}

	lines := visibleLines(screen, rows)
	for y, line := range lines {
		x := 0
		for _, span := range line.Spans {
			fg, bg, flags := resolveStyle(span.Style, pal, bgOpacity)
			for _, r := range span.Text {
				if x >= cols {
					break
				}
				w := runewidth.RuneWidth(r)
				if w == 0 {
					continue
				}
				idx := y*cols + x
				g.Cells[idx] = Cell{Rune: r, FG: fg, BG: bg, Flags: flags}
				if w == 2 && x+1 < cols {
					// Trailing half of a wide glyph: background only.
					g.Cells[idx+1] = Cell{FG: fg, BG: bg, Flags: flags}
				}
				x += w
			}
		}
	}
	return g
}

// visibleLines returns the last rows lines of the model, including the
// in-progress line, oldest first.
func visibleLines(screen *parser.Screen, rows int) []parser.Line {
	history := screen.Lines()
	lines := make([]parser.Line, 0, rows)
	keep := rows - 1
	if keep > len(history) {
		keep = len(history)
	}
	if keep > 0 {
		lines = append(lines, history[len(history)-keep:]...)
	}
	lines = append(lines, screen.CurrentLine())
	return lines
}

// resolveStyle maps a span style to concrete linear colors and shader
// flags. Reverse swaps fg/bg, hidden paints text in the background
// color, dim darkens the foreground.
func resolveStyle(st parser.Style, pal parser.Palette, bgOpacity float32) (fg, bg [4]float32, flags uint32) {
	fgRGB := pal.Resolve(st.FG, true)
	bgRGB := pal.Resolve(st.BG, false)
	if st.Attr&parser.AttrReverse != 0 {
		fgRGB, bgRGB = bgRGB, fgRGB
	}
	if st.Attr&parser.AttrDim != 0 {
		fgRGB = parser.Blend(fgRGB, bgRGB, 0.4)
	}
	if st.Attr&parser.AttrHidden != 0 {
		fgRGB = bgRGB
	}

	alpha := float32(1)
	if st.BG.Mode == parser.ColorModeDefault && st.Attr&parser.AttrReverse == 0 {
		alpha = bgOpacity
	}
	fg = linearRGBA(fgRGB, 1)
	bg = linearRGBA(bgRGB, alpha)

	if st.Attr&parser.AttrUnderline != 0 {
		flags |= CellUnderline
	}
	if st.Attr&parser.AttrStrikethrough != 0 {
		flags |= CellStrikethrough
	}
	if st.Attr&parser.AttrBold != 0 {
		flags |= CellBold
	}
	if st.Attr&parser.AttrItalic != 0 {
		flags |= CellItalic
	}
	if st.Attr&(parser.AttrSlowBlink|parser.AttrRapidBlink) != 0 {
		flags |= CellBlink
	}
	return fg, bg, flags
}

func linearRGBA(c parser.RGB, alpha float32) [4]float32 {
	r, g, b := c.Linear()
	return [4]float32{float32(r), float32(g), float32(b), alpha}
}
