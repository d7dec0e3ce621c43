// Copyright © 2026 scrollterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: term/parser/sgr.go
// Summary: Select Graphic Rendition parameter handling.

package parser

// ApplySGR iterates SGR parameters in order, mutating the current style.
// Empty parameter lists behave as a single 0. Extended-color parameters
// (38/48) consume following sub-parameters; if those run out the code is
// silently dropped.
func (s *Screen) ApplySGR(params []int) {
	if len(params) == 0 {
		params = []int{0}
	}
	st := s.style
	for i := 0; i < len(params); i++ {
		p := params[i]
		switch {
		case p == 0:
			st = DefaultStyle()
		case p >= 1 && p <= 9:
			st.Attr |= attrForCode(p)
		case p == 22:
			st.Attr &^= AttrBold | AttrDim
		case p == 23:
			st.Attr &^= AttrItalic
		case p == 24:
			st.Attr &^= AttrUnderline
		case p == 25:
			st.Attr &^= AttrSlowBlink | AttrRapidBlink
		case p == 27:
			st.Attr &^= AttrReverse
		case p == 28:
			st.Attr &^= AttrHidden
		case p == 29:
			st.Attr &^= AttrStrikethrough
		case p >= 30 && p <= 37:
			st.FG = Color{Mode: ColorModeStandard, Value: uint8(p - 30)}
		case p == 38:
			c, consumed, ok := extendedColor(params[i+1:])
			if !ok {
				i = len(params)
				break
			}
			st.FG = c
			i += consumed
		case p == 39:
			st.FG = DefaultFG
		case p >= 40 && p <= 47:
			st.BG = Color{Mode: ColorModeStandard, Value: uint8(p - 40)}
		case p == 48:
			c, consumed, ok := extendedColor(params[i+1:])
			if !ok {
				i = len(params)
				break
			}
			st.BG = c
			i += consumed
		case p == 49:
			st.BG = DefaultBG
		case p >= 90 && p <= 97:
			st.FG = Color{Mode: ColorModeStandard, Value: uint8(p - 90 + 8)}
		case p >= 100 && p <= 107:
			st.BG = Color{Mode: ColorModeStandard, Value: uint8(p - 100 + 8)}
		}
	}
	s.SetStyle(st)
}

func attrForCode(p int) Attribute {
	switch p {
	case 1:
		return AttrBold
	case 2:
		return AttrDim
	case 3:
		return AttrItalic
	case 4:
		return AttrUnderline
	case 5:
		return AttrSlowBlink
	case 6:
		return AttrRapidBlink
	case 7:
		return AttrReverse
	case 8:
		return AttrHidden
	case 9:
		return AttrStrikethrough
	}
	return 0
}

// extendedColor decodes the sub-parameters of SGR 38/48. It returns the
// color, how many parameters were consumed, and whether decoding
// succeeded.
func extendedColor(rest []int) (Color, int, bool) {
	if len(rest) == 0 {
		return Color{}, 0, false
	}
	switch rest[0] {
	case 5:
		if len(rest) < 2 {
			return Color{}, 0, false
		}
		return Color{Mode: ColorMode256, Value: clampChannel(rest[1])}, 2, true
	case 2:
		if len(rest) < 4 {
			return Color{}, 0, false
		}
		return Color{
			Mode: ColorModeRGB,
			RGB:  RGB{clampChannel(rest[1]), clampChannel(rest[2]), clampChannel(rest[3])},
		}, 4, true
	}
	return Color{}, 0, false
}

func clampChannel(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
