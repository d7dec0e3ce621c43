package parser

import (
	"reflect"
	"testing"
)

func feed(t *testing.T, input string) *Screen {
	t.Helper()
	s := NewScreen(100)
	p := NewParser(s)
	p.Feed([]byte(input))
	return s
}

// allText concatenates the text of finalized lines plus the current line.
func allText(s *Screen) []string {
	var out []string
	for _, l := range s.Lines() {
		out = append(out, l.Text())
	}
	out = append(out, s.CurrentLine().Text())
	return out
}

func TestSGRScenarios(t *testing.T) {
	tests := []struct {
		name   string
		seq    string
		verify func(*testing.T, *Screen)
	}{
		{
			name: "red span round-trip",
			seq:  "\x1b[31mRed\x1b[0m",
			verify: func(t *testing.T, s *Screen) {
				line := s.CurrentLine()
				if len(line.Spans) != 1 {
					t.Fatalf("want 1 span, got %d", len(line.Spans))
				}
				span := line.Spans[0]
				if span.Text != "Red" {
					t.Errorf("want text Red, got %q", span.Text)
				}
				want := Color{Mode: ColorModeStandard, Value: 1}
				if span.Style.FG != want {
					t.Errorf("want red fg, got %+v", span.Style.FG)
				}
				if span.Style.BG != DefaultBG {
					t.Errorf("want default bg, got %+v", span.Style.BG)
				}
				if span.Style.Attr != 0 {
					t.Errorf("want no attributes, got %v", span.Style.Attr)
				}
			},
		},
		{
			name: "24-bit RGB foreground",
			seq:  "\x1b[38;2;255;128;64mX\x1b[0m",
			verify: func(t *testing.T, s *Screen) {
				span := s.CurrentLine().Spans[0]
				if span.Text != "X" {
					t.Errorf("want X, got %q", span.Text)
				}
				want := Color{Mode: ColorModeRGB, RGB: RGB{255, 128, 64}}
				if span.Style.FG != want {
					t.Errorf("want rgb(255,128,64), got %+v", span.Style.FG)
				}
			},
		},
		{
			name: "256-color foreground",
			seq:  "\x1b[38;5;196mX",
			verify: func(t *testing.T, s *Screen) {
				span := s.CurrentLine().Spans[0]
				want := Color{Mode: ColorMode256, Value: 196}
				if span.Style.FG != want {
					t.Errorf("want palette 196, got %+v", span.Style.FG)
				}
			},
		},
		{
			name: "extended color missing params dropped",
			seq:  "\x1b[38;2;255mX",
			verify: func(t *testing.T, s *Screen) {
				span := s.CurrentLine().Spans[0]
				if span.Style.FG != DefaultFG {
					t.Errorf("truncated 38;2 should be dropped, got %+v", span.Style.FG)
				}
			},
		},
		{
			name: "bright background",
			seq:  "\x1b[101mX",
			verify: func(t *testing.T, s *Screen) {
				span := s.CurrentLine().Spans[0]
				want := Color{Mode: ColorModeStandard, Value: 9}
				if span.Style.BG != want {
					t.Errorf("want bright red bg, got %+v", span.Style.BG)
				}
			},
		},
		{
			name: "attribute set and clear",
			seq:  "\x1b[1;3;9mA\x1b[22;23;29mB",
			verify: func(t *testing.T, s *Screen) {
				spans := s.CurrentLine().Spans
				if len(spans) != 2 {
					t.Fatalf("want 2 spans, got %d", len(spans))
				}
				wantA := AttrBold | AttrItalic | AttrStrikethrough
				if spans[0].Style.Attr != wantA {
					t.Errorf("A: want %v, got %v", wantA, spans[0].Style.Attr)
				}
				if spans[1].Style.Attr != 0 {
					t.Errorf("B: want clear attrs, got %v", spans[1].Style.Attr)
				}
			},
		},
		{
			name: "empty SGR resets",
			seq:  "\x1b[31mA\x1b[mB",
			verify: func(t *testing.T, s *Screen) {
				spans := s.CurrentLine().Spans
				if len(spans) != 2 {
					t.Fatalf("want 2 spans, got %d", len(spans))
				}
				if spans[1].Style != DefaultStyle() {
					t.Errorf("want default style after bare SGR, got %+v", spans[1].Style)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.verify(t, feed(t, tt.seq))
		})
	}
}

func TestProgressUpdateAppends(t *testing.T) {
	s := feed(t, "10%\r20%\r30%\n")
	lines := s.Lines()
	if len(lines) != 1 {
		t.Fatalf("want 1 finalized line, got %d", len(lines))
	}
	text := lines[0].Text()
	if text != "10%20%30%" {
		t.Errorf("progress snapshots should append in order, got %q", text)
	}
}

func TestCRLF(t *testing.T) {
	s := feed(t, "A\r\nB\r\nC")
	got := allText(s)
	want := []string{"A", "B", "C"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("want %v, got %v", want, got)
	}
}

func TestEraseInDisplayPreservesScrollback(t *testing.T) {
	s := feed(t, "L1\nL2\x1b[2JL3")
	lines := s.Lines()
	if len(lines) != 2 {
		t.Fatalf("want 2 finalized lines, got %d", len(lines))
	}
	if lines[0].Text() != "L1" || lines[1].Text() != "L2" {
		t.Errorf("scrollback mangled: %q %q", lines[0].Text(), lines[1].Text())
	}
	if got := s.CurrentLine().Text(); got != "L3" {
		t.Errorf("want in-progress L3, got %q", got)
	}
}

func TestEraseInDisplayMode1NoOp(t *testing.T) {
	s := feed(t, "abc\x1b[1Jdef")
	if got := s.CurrentLine().Text(); got != "abcdef" {
		t.Errorf("ED 1 should be a no-op, got %q", got)
	}
	if len(s.Lines()) != 0 {
		t.Errorf("ED 1 should not finalize, got %d lines", len(s.Lines()))
	}
}

func TestEraseInLine(t *testing.T) {
	tests := []struct {
		name string
		seq  string
		want string
	}{
		{"mode 0 truncates run", "keep\x1b[31mgone\x1b[0K", "keep"},
		{"mode 2 clears line", "all gone\x1b[2Kx", "x"},
		{"mode 1 clears line", "gone\x1b[1Kx", "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := feed(t, tt.seq)
			if got := s.CurrentLine().Text(); got != tt.want {
				t.Errorf("want %q, got %q", tt.want, got)
			}
		})
	}
}

func TestCursorMovementIgnored(t *testing.T) {
	s := feed(t, "A\x1b[2A\x1b[5;5H\x1b[3C\x1b[su\x1b[6nB")
	// 'u' after \x1b[s terminates as CSI s; the bare 'u' prints.
	if got := s.CurrentLine().Text(); got != "AuB" {
		t.Errorf("cursor CSIs should be ignored, got %q", got)
	}
}

func TestPrivateModesIgnored(t *testing.T) {
	s := feed(t, "A\x1b[?1049h\x1b[?25lB")
	if got := s.CurrentLine().Text(); got != "AB" {
		t.Errorf("private modes should be ignored, got %q", got)
	}
}

func TestOSCDiscarded(t *testing.T) {
	tests := []struct {
		name string
		seq  string
		want string
	}{
		{"BEL terminated", "A\x1b]0;window title\x07B", "AB"},
		{"ST terminated", "A\x1b]2;title\x1b\\B", "AB"},
		{"DCS discarded", "A\x1bPq+payload\x1b\\B", "AB"},
		{"OSC abandoned by new CSI", "A\x1b]0;tit\x1b[31mB", "AB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := feed(t, tt.seq)
			if got := s.CurrentLine().Text(); got != tt.want {
				t.Errorf("want %q, got %q", tt.want, got)
			}
		})
	}
}

func TestTruncatedEscapeAbandoned(t *testing.T) {
	s := feed(t, "A\x1b[31;4")
	// Partial CSI: nothing printed beyond A yet.
	if got := s.CurrentLine().Text(); got != "A" {
		t.Errorf("want A, got %q", got)
	}
	// A fresh ESC abandons the partial sequence.
	s2 := NewScreen(100)
	p := NewParser(s2)
	p.Feed([]byte("A\x1b[31;4"))
	p.Feed([]byte("\x1b[32mB"))
	span := s2.CurrentLine().Spans[1]
	want := Color{Mode: ColorModeStandard, Value: 2}
	if span.Style.FG != want {
		t.Errorf("want green after abandoned CSI, got %+v", span.Style.FG)
	}
}

func TestSplitIndependence(t *testing.T) {
	input := []byte("pre\x1b[1;38;2;10;20;30mmid\r\n\x1b]0;title\x07post\x1b[0K\x1b[2Jtail\tx")
	whole := NewScreen(100)
	NewParser(whole).Feed(input)

	for cut := 0; cut <= len(input); cut++ {
		split := NewScreen(100)
		p := NewParser(split)
		p.Feed(input[:cut])
		p.Feed(input[cut:])
		if !reflect.DeepEqual(allText(whole), allText(split)) {
			t.Fatalf("cut %d: text diverged: %v vs %v", cut, allText(whole), allText(split))
		}
		if whole.Style() != split.Style() {
			t.Fatalf("cut %d: style diverged: %+v vs %+v", cut, whole.Style(), split.Style())
		}
	}
}

func TestSplitIndependenceMultibyte(t *testing.T) {
	input := []byte("héllo \x1b[31m世界\x1b[0m ωφ\n€")
	whole := NewScreen(100)
	NewParser(whole).Feed(input)

	for cut := 0; cut <= len(input); cut++ {
		split := NewScreen(100)
		p := NewParser(split)
		p.Feed(input[:cut])
		p.Feed(input[cut:])
		if !reflect.DeepEqual(allText(whole), allText(split)) {
			t.Fatalf("cut %d: text diverged: %v vs %v", cut, allText(whole), allText(split))
		}
	}
}

func TestSplitRuneReassembled(t *testing.T) {
	s := NewScreen(100)
	p := NewParser(s)
	// é arrives one byte per feed.
	p.Feed([]byte("h"))
	p.Feed([]byte{0xc3})
	p.Feed([]byte{0xa9})
	p.Feed([]byte("llo"))
	if got := s.CurrentLine().Text(); got != "héllo" {
		t.Errorf("want héllo, got %q", got)
	}

	// A held lead byte followed by a non-continuation byte decodes as
	// one replacement rune, then the stream resumes.
	s2 := NewScreen(100)
	p2 := NewParser(s2)
	p2.Feed([]byte{0xc3})
	p2.Feed([]byte("x"))
	if got := s2.CurrentLine().Text(); got != "�x" {
		t.Errorf("want replacement then x, got %q", got)
	}
}

func TestEmittedCharsBounded(t *testing.T) {
	inputs := []string{
		"plain text",
		"\x1b[31mstyled\x1b[0m",
		"\x1b\x1b\x1b[m",
		"\x1b]0;junk\x07",
		"\xff\xfe\xfd",
	}
	for _, in := range inputs {
		s := feed(t, in)
		chars := 0
		for _, text := range allText(s) {
			chars += len([]rune(text))
		}
		if chars > len(in) {
			t.Errorf("%q: emitted %d chars for %d bytes", in, chars, len(in))
		}
	}
}

func TestParamSaturationAndTruncation(t *testing.T) {
	// Values saturate at 255 instead of overflowing.
	s := feed(t, "\x1b[38;5;99999mX")
	span := s.CurrentLine().Spans[0]
	if span.Style.FG != (Color{Mode: ColorMode256, Value: 255}) {
		t.Errorf("param should saturate at 255, got %+v", span.Style.FG)
	}

	// More than 16 parameters: the tail is silently dropped.
	s = feed(t, "\x1b[0;0;0;0;0;0;0;0;0;0;0;0;0;0;0;0;31mX")
	span = s.CurrentLine().Spans[0]
	if span.Style.FG != DefaultFG {
		t.Errorf("overflow params should be truncated, got %+v", span.Style.FG)
	}
}

func TestBellHandler(t *testing.T) {
	rings := 0
	s := NewScreen(10)
	p := NewParser(s, WithBellHandler(func() { rings++ }))
	p.Feed([]byte("a\x07b\x07"))
	if rings != 2 {
		t.Errorf("want 2 bells, got %d", rings)
	}
	if got := s.CurrentLine().Text(); got != "ab" {
		t.Errorf("bell should not print, got %q", got)
	}
}

func TestUTF8Printing(t *testing.T) {
	s := feed(t, "héllo 世界")
	if got := s.CurrentLine().Text(); got != "héllo 世界" {
		t.Errorf("got %q", got)
	}
}
