// Copyright © 2026 scrollterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: render/atlas.go
// Summary: Shelf-packed single-channel glyph atlas with on-demand
// rasterization.

package render

import (
	"fmt"
	"image"
	"log"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	// DefaultAtlasSize is the edge length of the R8 atlas bitmap.
	DefaultAtlasSize = 2048
	// maxGlyphDim rejects glyphs that would monopolize a shelf.
	maxGlyphDim = 256
	glyphPad    = 2
)

// GlyphInfo describes one cached glyph. The UV rect is normalized to
// [0,1]² and stays stable for the lifetime of the atlas.
type GlyphInfo struct {
	UV       [4]float32 // u, v, width, height
	Advance  float32    // pixels
	BearingX float32    // left side bearing relative to the pen
	BearingY float32    // top of bitmap relative to the baseline (negative above)
	Width    int
	Height   int
}

// Atlas is a shelf-packed glyph cache backed by a contiguous
// single-channel pixel buffer. It has a single writer (the rendering
// thread) and requires no locking.
type Atlas struct {
	size     int
	pixels   []byte
	cursorX  int
	cursorY  int
	rowH     int
	glyphs   map[rune]GlyphInfo
	sfnt     *opentype.Font
	face     font.Face
	fontSize float64
	dirty    bool
	ph       *GlyphInfo // shared placeholder rect
}

// NewAtlas creates an empty atlas for the given font size.
func NewAtlas(fontSize float64) *Atlas {
	return &Atlas{
		size:     DefaultAtlasSize,
		pixels:   make([]byte, DefaultAtlasSize*DefaultAtlasSize),
		glyphs:   make(map[rune]GlyphInfo),
		fontSize: fontSize,
	}
}

// LoadFont parses raw font bytes and resets the cache. How the bytes are
// resolved for a family name is the caller's concern.
func (a *Atlas) LoadFont(data []byte) error {
	f, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("atlas: parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    a.fontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return fmt.Errorf("atlas: create face: %w", err)
	}
	a.sfnt = f
	a.face = face
	a.Clear()
	return nil
}

// SetFontSize changes the rasterization size. The atlas is cleared; UV
// keys are only stable within one size.
func (a *Atlas) SetFontSize(size float64) error {
	a.fontSize = size
	if a.sfnt == nil {
		a.Clear()
		return nil
	}
	face, err := opentype.NewFace(a.sfnt, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return fmt.Errorf("atlas: create face: %w", err)
	}
	a.face = face
	a.Clear()
	return nil
}

// FontSize returns the current rasterization size.
func (a *Atlas) FontSize() float64 { return a.fontSize }

// CellSize returns the monospace cell metrics derived from the font
// size. The glyph cache and the renderer must agree on these.
func (a *Atlas) CellSize() (w, h float32) {
	return float32(a.fontSize * 0.6), float32(a.fontSize * 1.2)
}

// Ascent returns the baseline offset from the cell top, in pixels.
func (a *Atlas) Ascent() float32 {
	if a.face != nil {
		return float32(a.face.Metrics().Ascent.Round())
	}
	return float32(a.fontSize * 0.96)
}

// Buffer exposes the backing pixels for GPU upload.
func (a *Atlas) Buffer() []byte { return a.pixels }

// Size returns the atlas edge length in pixels.
func (a *Atlas) Size() int { return a.size }

// TakeDirty reports whether new glyphs were cached since the last call.
func (a *Atlas) TakeDirty() bool {
	d := a.dirty
	a.dirty = false
	return d
}

// Clear resets the cursor, row height, pixel buffer and glyph map.
// Called on font reload and size changes.
func (a *Atlas) Clear() {
	for i := range a.pixels {
		a.pixels[i] = 0
	}
	a.cursorX = 0
	a.cursorY = 0
	a.rowH = 0
	a.glyphs = make(map[rune]GlyphInfo)
	a.ph = nil
	a.dirty = true
}

// GetOrRasterize returns the cached glyph for a code point, rasterizing
// it on first use. When the atlas is full, caching fails silently and
// the glyph renders as an empty rect.
func (a *Atlas) GetOrRasterize(r rune) GlyphInfo {
	if info, ok := a.glyphs[r]; ok {
		return info
	}
	var info GlyphInfo
	if a.face != nil {
		info = a.rasterize(r)
	} else {
		info = a.placeholder()
	}
	a.glyphs[r] = info
	return info
}

func (a *Atlas) rasterize(r rune) GlyphInfo {
	dot := fixed.Point26_6{}
	dr, mask, maskp, advance, ok := a.face.Glyph(dot, r)
	if !ok {
		return a.placeholder()
	}

	info := GlyphInfo{
		Advance:  float32(advance) / 64,
		BearingX: float32(dr.Min.X),
		BearingY: float32(dr.Min.Y),
		Width:    dr.Dx(),
		Height:   dr.Dy(),
	}
	if info.Width == 0 || info.Height == 0 {
		// Whitespace: advance only, nothing to draw.
		info.Width, info.Height = 0, 0
		return info
	}
	if info.Width > maxGlyphDim || info.Height > maxGlyphDim {
		log.Printf("Atlas: glyph %q too large (%dx%d), skipping", r, info.Width, info.Height)
		return GlyphInfo{Advance: info.Advance}
	}

	x, y, fit := a.alloc(info.Width, info.Height)
	if !fit {
		return GlyphInfo{Advance: info.Advance}
	}
	a.blit(mask, maskp, x, y, info.Width, info.Height)
	info.UV = a.uvRect(x, y, info.Width, info.Height)
	a.dirty = true
	return info
}

// placeholder synthesizes a hollow rectangle at the monospace cell
// metrics, used when no font is loaded or a glyph is missing.
func (a *Atlas) placeholder() GlyphInfo {
	if a.ph != nil {
		return *a.ph
	}
	cw, ch := a.CellSize()
	w, h := int(cw), int(ch)
	if w < 2 {
		w = 2
	}
	if h < 2 {
		h = 2
	}
	info := GlyphInfo{
		Advance:  float32(w),
		BearingX: 0,
		BearingY: -float32(h),
		Width:    w,
		Height:   h,
	}
	x, y, fit := a.alloc(w, h)
	if !fit {
		return GlyphInfo{Advance: info.Advance}
	}
	for py := 0; py < h; py++ {
		for px := 0; px < w; px++ {
			if py == 0 || py == h-1 || px == 0 || px == w-1 {
				a.pixels[(y+py)*a.size+x+px] = 0xff
			}
		}
	}
	info.UV = a.uvRect(x, y, w, h)
	a.dirty = true
	a.ph = &info
	return info
}

// alloc reserves a w×h region, advancing the shelf cursor. Returns the
// top-left corner and whether the region fit.
func (a *Atlas) alloc(w, h int) (int, int, bool) {
	if w+glyphPad > a.size || h+glyphPad > a.size {
		return 0, 0, false
	}
	if a.cursorX+w+glyphPad > a.size {
		a.cursorY += a.rowH + glyphPad
		a.cursorX = 0
		a.rowH = 0
	}
	if a.cursorY+h+glyphPad > a.size {
		return 0, 0, false
	}
	x, y := a.cursorX, a.cursorY
	a.cursorX += w + glyphPad
	if h > a.rowH {
		a.rowH = h
	}
	return x, y, true
}

func (a *Atlas) blit(mask image.Image, maskp image.Point, x, y, w, h int) {
	if alpha, ok := mask.(*image.Alpha); ok {
		for py := 0; py < h; py++ {
			src := alpha.Pix[(maskp.Y+py)*alpha.Stride+maskp.X:]
			copy(a.pixels[(y+py)*a.size+x:(y+py)*a.size+x+w], src[:w])
		}
		return
	}
	for py := 0; py < h; py++ {
		for px := 0; px < w; px++ {
			_, _, _, alpha := mask.At(maskp.X+px, maskp.Y+py).RGBA()
			a.pixels[(y+py)*a.size+x+px] = uint8(alpha >> 8)
		}
	}
}

func (a *Atlas) uvRect(x, y, w, h int) [4]float32 {
	s := float32(a.size)
	return [4]float32{
		float32(x) / s,
		float32(y) / s,
		float32(w) / s,
		float32(h) / s,
	}
}
