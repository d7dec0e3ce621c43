// Copyright © 2026 scrollterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: render/textdrv/driver.go
// Summary: tcell fallback presenter for environments without a GPU.
// Usage: Draws the styled-text model straight onto a terminal screen.

package textdrv

import (
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"scrollterm/term/parser"
)

// Driver presents styled lines on a tcell.Screen.
type Driver struct {
	screen  tcell.Screen
	palette parser.Palette
}

// New initializes a tcell screen.
func New(palette parser.Palette) (*Driver, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	return &Driver{screen: screen, palette: palette}, nil
}

// Size returns the terminal dimensions.
func (d *Driver) Size() (cols, rows int) { return d.screen.Size() }

// PollEvent blocks for the next input event.
func (d *Driver) PollEvent() tcell.Event { return d.screen.PollEvent() }

// Fini restores the terminal.
func (d *Driver) Fini() { d.screen.Fini() }

// Draw renders the tail of the model and shows the frame.
func (d *Driver) Draw(model *parser.Screen) {
	cols, rows := d.screen.Size()
	d.screen.Clear()

	history := model.Lines()
	lines := make([]parser.Line, 0, rows)
	keep := rows - 1
	if keep > len(history) {
		keep = len(history)
	}
	if keep > 0 {
		lines = append(lines, history[len(history)-keep:]...)
	}
	lines = append(lines, model.CurrentLine())

	for y, line := range lines {
		x := 0
		for _, span := range line.Spans {
			style := d.mapStyle(span.Style)
			for _, r := range span.Text {
				if x >= cols {
					break
				}
				d.screen.SetContent(x, y, r, nil, style)
				x += runewidth.RuneWidth(r)
			}
		}
	}
	d.screen.Show()
}

func (d *Driver) mapStyle(st parser.Style) tcell.Style {
	style := tcell.StyleDefault.
		Foreground(d.mapColor(st.FG, true)).
		Background(d.mapColor(st.BG, false))
	style = style.Bold(st.Attr&parser.AttrBold != 0)
	style = style.Dim(st.Attr&parser.AttrDim != 0)
	style = style.Italic(st.Attr&parser.AttrItalic != 0)
	style = style.Underline(st.Attr&parser.AttrUnderline != 0)
	style = style.Blink(st.Attr&(parser.AttrSlowBlink|parser.AttrRapidBlink) != 0)
	style = style.Reverse(st.Attr&parser.AttrReverse != 0)
	style = style.StrikeThrough(st.Attr&parser.AttrStrikethrough != 0)
	if st.Attr&parser.AttrHidden != 0 {
		style = style.Foreground(d.mapColor(st.BG, false))
	}
	return style
}

func (d *Driver) mapColor(c parser.Color, fg bool) tcell.Color {
	if c.Mode == parser.ColorModeDefault {
		return tcell.ColorDefault
	}
	rgb := d.palette.Resolve(c, fg)
	return tcell.NewRGBColor(int32(rgb.R), int32(rgb.G), int32(rgb.B))
}
