// Copyright © 2026 scrollterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: term/parser/parser.go
// Summary: VT-style escape sequence state machine.
// Notes: Byte-safe; truncation at any boundary yields a defined state.

package parser

import (
	"unicode/utf8"
)

type State int

const (
	StateGround State = iota
	StateEscape
	StateCSI
	StateOSC
	StateOSCEscape
	StateDCS
	StateDCSEscape
)

const (
	maxParams   = 16
	maxParamVal = 255
)

// Parser is a VT100/ANSI stream parser feeding a Screen model. It is
// deterministic: the same bytes from the same starting style produce the
// same styled lines, regardless of how the input is split.
type Parser struct {
	state        State
	screen       *Screen
	params       []int
	currentParam int
	private      bool
	pending      []byte // incomplete trailing UTF-8 sequence
	bell         func()
}

// Option configures a Parser.
type Option func(*Parser)

// WithBellHandler sets a callback invoked on BEL in ground state.
func WithBellHandler(fn func()) Option {
	return func(p *Parser) { p.bell = fn }
}

// NewParser creates a parser bound to the given model.
func NewParser(screen *Screen, opts ...Option) *Parser {
	p := &Parser{
		state:  StateGround,
		screen: screen,
		params: make([]int, 0, maxParams),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Screen returns the model the parser feeds.
func (p *Parser) Screen() *Screen { return p.screen }

// Feed processes a slice of bytes from the PTY.
func (p *Parser) Feed(data []byte) {
	// PTY reads chop multi-byte characters at arbitrary boundaries;
	// reassemble with whatever the previous feed left over.
	if len(p.pending) > 0 {
		data = append(p.pending, data...)
		p.pending = nil
	}
	for i := 0; i < len(data); {
		b := data[i]
		size := 1

		switch p.state {
		case StateGround:
			switch {
			case b == 0x1b:
				p.state = StateEscape
			case b == '\n':
				p.screen.Newline()
			case b == '\r':
				p.screen.CarriageReturn()
			case b == '\b':
				p.screen.Backspace()
			case b == '\t':
				p.screen.Tab()
			case b == 0x07:
				if p.bell != nil {
					p.bell()
				}
			case b < ' ' || b == 0x7f:
				// Other control characters are ignored.
			default:
				if !utf8.FullRune(data[i:]) {
					// Truncated sequence at the tail; at most three
					// bytes, held for the next feed.
					p.pending = append(p.pending, data[i:]...)
					return
				}
				var r rune
				r, size = utf8.DecodeRune(data[i:])
				p.screen.PutChar(r)
			}
		case StateEscape:
			switch b {
			case '[':
				p.state = StateCSI
				p.params = p.params[:0]
				p.currentParam = 0
				p.private = false
			case ']':
				p.state = StateOSC
			case 'P':
				p.state = StateDCS
			case 0x1b:
				// A fresh ESC abandons the partial sequence.
			default:
				p.state = StateGround
			}
		case StateCSI:
			switch {
			case b >= '0' && b <= '9':
				p.currentParam = p.currentParam*10 + int(b-'0')
				if p.currentParam > maxParamVal {
					p.currentParam = maxParamVal
				}
			case b == ';':
				p.pushParam()
			case b == '?':
				p.private = true
			case b == 0x1b:
				p.state = StateEscape
			case b >= '@' && b <= '~':
				p.pushParam()
				p.dispatchCSI(b)
				p.state = StateGround
			default:
				// Intermediate and sub-parameter bytes are ignored.
			}
		case StateOSC:
			switch b {
			case 0x07:
				p.state = StateGround
			case 0x1b:
				p.state = StateOSCEscape
			default:
				// OSC strings (titles etc.) are discarded.
			}
		case StateOSCEscape:
			if b == '\\' {
				p.state = StateGround
			} else {
				// Not an ST: the string is abandoned and the ESC
				// starts a new sequence.
				p.state = StateEscape
				continue
			}
		case StateDCS:
			if b == 0x1b {
				p.state = StateDCSEscape
			}
		case StateDCSEscape:
			if b == '\\' {
				p.state = StateGround
			} else {
				p.state = StateEscape
				continue
			}
		}
		i += size
	}
}

// DrainLines returns the styled lines finalized since the last drain.
func (p *Parser) DrainLines() []Line {
	return p.screen.DrainLines()
}

func (p *Parser) pushParam() {
	if len(p.params) < maxParams {
		p.params = append(p.params, p.currentParam)
	}
	p.currentParam = 0
}

func (p *Parser) dispatchCSI(final byte) {
	if p.private {
		// DEC private modes (alt screen, bracketed paste, ...) are
		// not part of the scrollback model.
		return
	}
	switch final {
	case 'm':
		p.screen.ApplySGR(p.params)
	case 'K':
		p.screen.EraseInLine(p.param(0, 0))
	case 'J':
		p.screen.EraseInDisplay(p.param(0, 0))
	default:
		// Cursor movement and the remaining CSIs are deliberately
		// not modeled.
	}
}

func (p *Parser) param(i, def int) int {
	if i < len(p.params) {
		return p.params[i]
	}
	return def
}
