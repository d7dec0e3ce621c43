// Copyright © 2026 scrollterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: term/parser/screen.go
// Summary: Styled-text model accumulating parser events into scrollback.
// Notes: Scrollback-first; carriage return never repositions a cursor.

package parser

import (
	"github.com/mattn/go-runewidth"
)

const defaultScrollback = 2000

// Screen accumulates parser events into a sequence of styled lines. It
// holds the current style, the in-progress character run, the span list
// of the current line and the bounded finalized-line history.
type Screen struct {
	style    Style
	run      []rune
	spans    []Span
	lines    []Line
	drained  int // lines[drained:] have not been handed out yet
	maxLines int
}

// NewScreen creates a model retaining at most maxLines finalized lines.
func NewScreen(maxLines int) *Screen {
	if maxLines <= 0 {
		maxLines = defaultScrollback
	}
	return &Screen{
		style:    DefaultStyle(),
		maxLines: maxLines,
	}
}

// Style returns the current graphic rendition.
func (s *Screen) Style() Style { return s.style }

// SetStyle replaces the current style, flushing the in-progress run
// first so a span is never split across two styles.
func (s *Screen) SetStyle(st Style) {
	if st != s.style {
		s.flushRun()
		s.style = st
	}
}

// PutChar appends one character under the current style.
func (s *Screen) PutChar(r rune) {
	s.run = append(s.run, r)
}

// flushRun emits the in-progress run as a span, if non-empty.
func (s *Screen) flushRun() {
	if len(s.run) == 0 {
		return
	}
	s.spans = append(s.spans, Span{Text: string(s.run), Style: s.style})
	s.run = s.run[:0]
}

// Newline finalizes the current line. Empty lines produce an empty Line.
func (s *Screen) Newline() {
	s.flushRun()
	line := Line{Spans: s.spans}
	s.spans = nil
	s.lines = append(s.lines, line)
	if len(s.lines) > s.maxLines {
		drop := len(s.lines) - s.maxLines
		s.lines = s.lines[drop:]
		s.drained -= drop
		if s.drained < 0 {
			s.drained = 0
		}
	}
}

// CarriageReturn flushes the current run without terminating the line.
// Subsequent prints append; progress updates produce multiple snapshots.
func (s *Screen) CarriageReturn() {
	s.flushRun()
}

// Tab advances to the next 8-column stop, measured in display columns.
func (s *Screen) Tab() {
	w := 0
	for _, sp := range s.spans {
		w += runewidth.StringWidth(sp.Text)
	}
	w += runewidth.StringWidth(string(s.run))
	pad := 8 - w%8
	for i := 0; i < pad; i++ {
		s.run = append(s.run, ' ')
	}
}

// Backspace removes the last character of the in-progress run, if any.
func (s *Screen) Backspace() {
	if len(s.run) > 0 {
		s.run = s.run[:len(s.run)-1]
	}
}

// EraseInLine implements CSI K against the current line.
// Mode 0 truncates the in-progress run; modes 1 and 2 clear the whole line.
func (s *Screen) EraseInLine(mode int) {
	switch mode {
	case 0:
		s.run = s.run[:0]
	case 1, 2:
		s.run = s.run[:0]
		s.spans = nil
	}
}

// EraseInDisplay implements CSI J. Scrollback is always preserved: for
// modes 0, 2 and 3 the current line is finalized so the shell can begin
// a fresh prompt. Mode 1 is a no-op.
func (s *Screen) EraseInDisplay(mode int) {
	switch mode {
	case 0, 2, 3:
		s.Newline()
	}
}

// CurrentLine returns a snapshot of the not-yet-terminated line.
func (s *Screen) CurrentLine() Line {
	spans := make([]Span, len(s.spans), len(s.spans)+1)
	copy(spans, s.spans)
	if len(s.run) > 0 {
		spans = append(spans, Span{Text: string(s.run), Style: s.style})
	}
	return Line{Spans: spans}
}

// Lines returns the finalized scrollback, oldest first.
func (s *Screen) Lines() []Line { return s.lines }

// DrainLines returns the lines finalized since the previous drain.
func (s *Screen) DrainLines() []Line {
	out := s.lines[s.drained:]
	s.drained = len(s.lines)
	return out
}

// Reset clears all model state back to construction defaults.
func (s *Screen) Reset() {
	s.style = DefaultStyle()
	s.run = s.run[:0]
	s.spans = nil
	s.lines = nil
	s.drained = 0
}
