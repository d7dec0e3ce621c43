// Copyright © 2026 scrollterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: render/renderer.go
// Summary: Instanced per-cell GPU pipeline: backgrounds then glyphs.

package render

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// ErrSurfaceLost is returned by Present when the drawable is gone; the
// caller reconfigures the surface and retries. The frame is dropped.
var ErrSurfaceLost = errors.New("render: surface lost")

// floats per instance: cellPos(2) cellSize(2) fg(4) bg(4) uv(4)
// glyphOff(2) glyphSize(2) flags(1)
const instanceStride = 21

// Renderer draws a cell grid with two instanced passes sharing one quad
// and one instance buffer: backgrounds first, then glyphs.
type Renderer struct {
	atlas     *Atlas
	width     int
	height    int
	bgProg    uint32
	glyphProg uint32
	vao       uint32
	quadVBO   uint32
	quadEBO   uint32
	instVBO   uint32
	atlasTex  uint32
	instCap   int
	instances []float32
	count     int
	start     time.Time
}

// NewRenderer builds the pipeline. A GL context must be current.
func NewRenderer(atlas *Atlas) (*Renderer, error) {
	r := &Renderer{atlas: atlas, start: time.Now()}

	var err error
	if r.bgProg, err = linkProgram(cellVertexShader, bgFragmentShader); err != nil {
		return nil, fmt.Errorf("render: background program: %w", err)
	}
	if r.glyphProg, err = linkProgram(cellVertexShader, glyphFragmentShader); err != nil {
		return nil, fmt.Errorf("render: glyph program: %w", err)
	}

	gl.GenVertexArrays(1, &r.vao)
	gl.BindVertexArray(r.vao)

	// Shared unit quad: (0,0)-(1,1), two triangles.
	quad := []float32{0, 0, 1, 0, 1, 1, 0, 1}
	indices := []uint32{0, 1, 2, 0, 2, 3}

	gl.GenBuffers(1, &r.quadVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.quadVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(quad)*4, gl.Ptr(quad), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, 8, gl.PtrOffset(0))

	gl.GenBuffers(1, &r.quadEBO)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, r.quadEBO)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, gl.Ptr(indices), gl.STATIC_DRAW)

	gl.GenBuffers(1, &r.instVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.instVBO)
	stride := int32(instanceStride * 4)
	offsets := []struct {
		loc  uint32
		size int32
		off  int
	}{
		{1, 2, 0},  // cellPos
		{2, 2, 2},  // cellSize
		{3, 4, 4},  // fg
		{4, 4, 8},  // bg
		{5, 4, 12}, // uvRect
		{6, 2, 16}, // glyphOff
		{7, 2, 18}, // glyphSize
		{8, 1, 20}, // flags
	}
	for _, o := range offsets {
		gl.EnableVertexAttribArray(o.loc)
		gl.VertexAttribPointer(o.loc, o.size, gl.FLOAT, false, stride, gl.PtrOffset(o.off*4))
		gl.VertexAttribDivisor(o.loc, 1)
	}

	// R8 atlas texture, linear min/mag, clamp-to-edge.
	gl.GenTextures(1, &r.atlasTex)
	gl.BindTexture(gl.TEXTURE_2D, r.atlasTex)
	size := int32(atlas.Size())
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.R8, size, size, 0, gl.RED, gl.UNSIGNED_BYTE, gl.Ptr(atlas.Buffer()))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.ONE, gl.ONE_MINUS_SRC_ALPHA)

	gl.BindVertexArray(0)
	return r, nil
}

// Resize recomputes the projection and viewport. The glyph cache is not
// invalidated.
func (r *Renderer) Resize(w, h int) {
	r.width, r.height = w, h
	if w > 0 && h > 0 {
		gl.Viewport(0, 0, int32(w), int32(h))
	}
}

// SetGrid rebuilds the instance array from the grid in reading order.
func (r *Renderer) SetGrid(grid Grid) {
	cellW, cellH := r.atlas.CellSize()
	ascent := r.atlas.Ascent()
	needed := len(grid.Cells) * instanceStride
	if cap(r.instances) < needed {
		r.instances = make([]float32, 0, needed)
	}
	r.instances = r.instances[:0]

	for i, cell := range grid.Cells {
		col := i % grid.Cols
		row := i / grid.Cols
		x := float32(col) * cellW
		y := float32(row) * cellH

		var info GlyphInfo
		if cell.Rune != 0 && cell.Rune != ' ' {
			info = r.atlas.GetOrRasterize(cell.Rune)
		}
		flags := float32(cell.Flags)
		r.instances = append(r.instances,
			x, y,
			cellW, cellH,
			cell.FG[0], cell.FG[1], cell.FG[2], cell.FG[3],
			cell.BG[0], cell.BG[1], cell.BG[2], cell.BG[3],
			info.UV[0], info.UV[1], info.UV[2], info.UV[3],
			info.BearingX, ascent+info.BearingY,
			float32(info.Width), float32(info.Height),
			flags,
		)
	}
	r.count = len(grid.Cells)
}

// Present streams the instances and executes the two draw passes.
func (r *Renderer) Present() error {
	if r.width <= 0 || r.height <= 0 {
		return ErrSurfaceLost
	}
	if r.atlas.TakeDirty() {
		r.uploadAtlas()
	}

	gl.ClearColor(0, 0, 0, 0)
	gl.Clear(gl.COLOR_BUFFER_BIT)
	if r.count == 0 {
		return nil
	}

	gl.BindVertexArray(r.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.instVBO)
	if len(r.instances) > r.instCap {
		gl.BufferData(gl.ARRAY_BUFFER, len(r.instances)*4, gl.Ptr(r.instances), gl.DYNAMIC_DRAW)
		r.instCap = len(r.instances)
	} else {
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(r.instances)*4, gl.Ptr(r.instances))
	}

	proj := ortho(float32(r.width), float32(r.height))
	elapsed := float32(time.Since(r.start).Seconds())

	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, r.atlasTex)

	for _, pass := range []struct {
		prog  uint32
		glyph int32
	}{
		{r.bgProg, 0},
		{r.glyphProg, 1},
	} {
		gl.UseProgram(pass.prog)
		gl.UniformMatrix4fv(gl.GetUniformLocation(pass.prog, gl.Str("projection\x00")), 1, false, &proj[0])
		gl.Uniform1i(gl.GetUniformLocation(pass.prog, gl.Str("glyphPass\x00")), pass.glyph)
		if pass.glyph == 1 {
			gl.Uniform1i(gl.GetUniformLocation(pass.prog, gl.Str("atlas\x00")), 0)
			gl.Uniform1f(gl.GetUniformLocation(pass.prog, gl.Str("time\x00")), elapsed)
		}
		gl.DrawElementsInstanced(gl.TRIANGLES, 6, gl.UNSIGNED_INT, gl.PtrOffset(0), int32(r.count))
	}
	gl.BindVertexArray(0)
	return nil
}

// Destroy releases all GPU objects.
func (r *Renderer) Destroy() {
	gl.DeleteProgram(r.bgProg)
	gl.DeleteProgram(r.glyphProg)
	gl.DeleteBuffers(1, &r.quadVBO)
	gl.DeleteBuffers(1, &r.quadEBO)
	gl.DeleteBuffers(1, &r.instVBO)
	gl.DeleteTextures(1, &r.atlasTex)
	gl.DeleteVertexArrays(1, &r.vao)
}

// uploadAtlas pushes the whole atlas buffer to the texture. Partial
// subregion uploads would be a valid optimization.
func (r *Renderer) uploadAtlas() {
	size := int32(r.atlas.Size())
	gl.BindTexture(gl.TEXTURE_2D, r.atlasTex)
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, size, size, gl.RED, gl.UNSIGNED_BYTE, gl.Ptr(r.atlas.Buffer()))
}

// ortho builds a top-left-origin orthographic projection, column major.
func ortho(w, h float32) [16]float32 {
	return [16]float32{
		2 / w, 0, 0, 0,
		0, -2 / h, 0, 0,
		0, 0, -1, 0,
		-1, 1, 0, 1,
	}
}

func linkProgram(vertSrc, fragSrc string) (uint32, error) {
	vert, err := compileShader(vertSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vert)
	frag, err := compileShader(fragSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(frag)

	prog := gl.CreateProgram()
	gl.AttachShader(prog, vert)
	gl.AttachShader(prog, frag)
	gl.LinkProgram(prog)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLen)
		logText := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(prog, logLen, nil, gl.Str(logText))
		gl.DeleteProgram(prog)
		return 0, fmt.Errorf("link: %s", logText)
	}
	return prog, nil
}

func compileShader(src string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	cstr, free := gl.Strs(src)
	gl.ShaderSource(shader, 1, cstr, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		logText := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(shader, logLen, nil, gl.Str(logText))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compile: %s", logText)
	}
	return shader, nil
}
