// Copyright © 2026 scrollterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: render/surface.go
// Summary: GLFW window and GL context for the cell renderer.

package render

import (
	"fmt"
	"runtime"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
)

func init() {
	// GLFW event handling must run on the main OS thread.
	runtime.LockOSThread()
}

// Surface owns the window, the GL context and presentation.
type Surface struct {
	window *glfw.Window
}

// NewSurface creates a window with a current GL 4.1 core context.
func NewSurface(title string, width, height int, vsync bool) (*Surface, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("surface: glfw init: %w", err)
	}
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.SRGBCapable, glfw.True)

	window, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("surface: create window: %w", err)
	}
	window.MakeContextCurrent()
	if err := gl.Init(); err != nil {
		window.Destroy()
		glfw.Terminate()
		return nil, fmt.Errorf("surface: gl init: %w", err)
	}
	if vsync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}
	gl.Enable(gl.FRAMEBUFFER_SRGB)
	return &Surface{window: window}, nil
}

// Window exposes the underlying glfw window for input callbacks.
func (s *Surface) Window() *glfw.Window { return s.window }

// FramebufferSize returns the drawable size in pixels.
func (s *Surface) FramebufferSize() (int, int) {
	return s.window.GetFramebufferSize()
}

// ShouldClose reports whether the user requested shutdown.
func (s *Surface) ShouldClose() bool { return s.window.ShouldClose() }

// Swap presents the back buffer.
func (s *Surface) Swap() { s.window.SwapBuffers() }

// Poll pumps pending window events.
func (s *Surface) Poll() { glfw.PollEvents() }

// Destroy tears the window and the GLFW state down.
func (s *Surface) Destroy() {
	s.window.Destroy()
	glfw.Terminate()
}
