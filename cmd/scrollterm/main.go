// Copyright © 2026 scrollterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/scrollterm/main.go
// Summary: Event loop wiring the PTY session, parser and renderers.

package main

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/glfw/v3.3/glfw"
	"golang.org/x/term"

	"scrollterm/config"
	"scrollterm/render"
	"scrollterm/render/textdrv"
	sterm "scrollterm/term"
	"scrollterm/term/history"
	"scrollterm/term/parser"
)

func main() {
	log.SetPrefix("scrollterm: ")
	cfg := config.Load()
	pal, err := cfg.ToPalette()
	if err != nil {
		log.Printf("Config: %v, using builtin palette", err)
		pal = parser.DefaultPalette()
	}

	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}

	session, err := sterm.Open(shell, "", 24, 80, sterm.WithHooks(sterm.Hooks{
		OnBell: func(id string) { log.Printf("Session %s: bell", id) },
	}))
	if err != nil {
		log.Fatalf("open session: %v", err)
	}
	defer session.Close()

	screen := parser.NewScreen(cfg.ScrollbackLines)
	p := parser.NewParser(screen, parser.WithBellHandler(session.Bell))
	ring := sterm.NewRing(cfg.ScrollbackLines * sterm.RingBytesPerLine)

	index := openHistoryIndex()
	if index != nil {
		defer index.Close()
	}

	app := &app{
		cfg:     cfg,
		palette: pal,
		screen:  screen,
		parser:  p,
		ring:    ring,
		session: session,
		index:   index,
	}

	if err := app.runGPU(); err != nil {
		log.Printf("Renderer: %v", err)
		if term.IsTerminal(int(os.Stdout.Fd())) {
			if err := app.runText(); err != nil {
				log.Fatalf("text driver: %v", err)
			}
			return
		}
		os.Exit(1)
	}
}

type app struct {
	cfg     config.Config
	palette parser.Palette
	screen  *parser.Screen
	parser  *parser.Parser
	ring    *sterm.Ring
	session *sterm.Session
	index   *history.Index
	lineNo  int64
}

// pump drains pending PTY output through the ring into the parser and
// feeds newly finalized lines to the search index.
func (a *app) pump() {
drain:
	for {
		select {
		case chunk, ok := <-a.session.Output():
			if !ok {
				break drain
			}
			a.ring.Append(chunk)
		default:
			break drain
		}
	}
	if a.ring.Len() == 0 {
		return
	}
	a.parser.Feed(a.ring.View())
	a.ring.Consume(a.ring.Len())
	if a.index != nil {
		now := time.Now()
		for _, line := range a.parser.DrainLines() {
			a.index.Add(a.lineNo, now, line.Text())
			a.lineNo++
		}
	}
}

func (a *app) runGPU() error {
	surface, err := render.NewSurface("scrollterm", 960, 640, a.cfg.Vsync)
	if err != nil {
		return err
	}
	defer surface.Destroy()

	atlas := render.NewAtlas(a.cfg.FontSize)
	if data := loadFont(a.cfg.FontFamily); data != nil {
		if err := atlas.LoadFont(data); err != nil {
			log.Printf("Atlas: %v, using placeholder glyphs", err)
		}
	}

	renderer, err := render.NewRenderer(atlas)
	if err != nil {
		return err
	}
	defer renderer.Destroy()

	surface.Window().SetCharCallback(func(_ *glfw.Window, ch rune) {
		a.session.Write([]byte(string(ch)))
	})
	surface.Window().SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, mods glfw.ModifierKey) {
		if action == glfw.Release {
			return
		}
		if b := keyBytes(key, mods); b != nil {
			a.session.Write(b)
		}
	})

	cellW, cellH := atlas.CellSize()
	lastW, lastH := 0, 0
	for !surface.ShouldClose() {
		surface.Poll()
		a.pump()

		w, h := surface.FramebufferSize()
		if w != lastW || h != lastH {
			lastW, lastH = w, h
			renderer.Resize(w, h)
			cols, rows := render.GridSize(w, h, cellW, cellH)
			if cols > 0 && rows > 0 {
				if err := a.session.Resize(rows, cols); err != nil && err != sterm.ErrClosed {
					log.Printf("Session: resize: %v", err)
				}
			}
		}

		cols, rows := render.GridSize(w, h, cellW, cellH)
		grid := render.BuildGrid(a.screen, a.palette, cols, rows, float32(a.cfg.BackgroundOpacity))
		renderer.SetGrid(grid)
		if err := renderer.Present(); err != nil {
			// Surface lost: drop the frame, let the next iteration
			// reconfigure via the framebuffer-size check.
			lastW, lastH = 0, 0
			continue
		}
		surface.Swap()
		if !a.cfg.Vsync {
			time.Sleep(8 * time.Millisecond)
		}
	}
	return nil
}

func (a *app) runText() error {
	drv, err := textdrv.New(a.palette)
	if err != nil {
		return err
	}
	defer drv.Fini()

	cols, rows := drv.Size()
	a.session.Resize(rows, cols)

	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := drv.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			events <- ev
		}
	}()

	tick := time.NewTicker(33 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch e := ev.(type) {
			case *tcell.EventKey:
				if e.Key() == tcell.KeyCtrlQ {
					return nil
				}
				a.session.Write(tcellKeyBytes(e))
			case *tcell.EventResize:
				cols, rows = drv.Size()
				a.session.Resize(rows, cols)
			}
		case <-tick.C:
			a.pump()
			drv.Draw(a.screen)
		}
	}
}

func openHistoryIndex() *history.Index {
	dir, err := os.UserCacheDir()
	if err != nil {
		return nil
	}
	path := filepath.Join(dir, "scrollterm", "history.db")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil
	}
	idx, err := history.Open(path)
	if err != nil {
		log.Printf("History: %v, search disabled", err)
		return nil
	}
	return idx
}

// loadFont resolves a family name to raw font bytes by scanning the
// usual font directories. Returns nil when nothing matches; the atlas
// then falls back to placeholder glyphs.
func loadFont(family string) []byte {
	if data, err := os.ReadFile(family); err == nil {
		return data
	}
	dirs := []string{"/usr/share/fonts", "/usr/local/share/fonts"}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".local", "share", "fonts"))
	}
	needle := strings.ToLower(strings.ReplaceAll(family, " ", ""))
	var match string
	for _, dir := range dirs {
		filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
			if err != nil || info.IsDir() || match != "" {
				return nil
			}
			name := strings.ToLower(info.Name())
			if !strings.HasSuffix(name, ".ttf") && !strings.HasSuffix(name, ".otf") {
				return nil
			}
			if strings.Contains(strings.ReplaceAll(name, " ", ""), needle) {
				match = path
			}
			return nil
		})
		if match != "" {
			break
		}
	}
	if match == "" {
		return nil
	}
	data, err := os.ReadFile(match)
	if err != nil {
		return nil
	}
	return data
}

// keyBytes maps non-character keys to their escape sequences.
func keyBytes(key glfw.Key, mods glfw.ModifierKey) []byte {
	switch key {
	case glfw.KeyEnter, glfw.KeyKPEnter:
		return []byte("\r")
	case glfw.KeyBackspace:
		return []byte{0x7f}
	case glfw.KeyTab:
		return []byte("\t")
	case glfw.KeyEscape:
		return []byte{0x1b}
	case glfw.KeyUp:
		return []byte("\x1b[A")
	case glfw.KeyDown:
		return []byte("\x1b[B")
	case glfw.KeyRight:
		return []byte("\x1b[C")
	case glfw.KeyLeft:
		return []byte("\x1b[D")
	case glfw.KeyHome:
		return []byte("\x1b[H")
	case glfw.KeyEnd:
		return []byte("\x1b[F")
	case glfw.KeyDelete:
		return []byte("\x1b[3~")
	case glfw.KeyPageUp:
		return []byte("\x1b[5~")
	case glfw.KeyPageDown:
		return []byte("\x1b[6~")
	}
	if mods&glfw.ModControl != 0 && key >= glfw.KeyA && key <= glfw.KeyZ {
		return []byte{byte(key-glfw.KeyA) + 1}
	}
	return nil
}

func tcellKeyBytes(e *tcell.EventKey) []byte {
	switch e.Key() {
	case tcell.KeyEnter:
		return []byte("\r")
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return []byte{0x7f}
	case tcell.KeyTab:
		return []byte("\t")
	case tcell.KeyEsc:
		return []byte{0x1b}
	case tcell.KeyUp:
		return []byte("\x1b[A")
	case tcell.KeyDown:
		return []byte("\x1b[B")
	case tcell.KeyRight:
		return []byte("\x1b[C")
	case tcell.KeyLeft:
		return []byte("\x1b[D")
	case tcell.KeyRune:
		return []byte(string(e.Rune()))
	}
	if e.Key() >= tcell.KeyCtrlA && e.Key() <= tcell.KeyCtrlZ {
		return []byte{byte(e.Key())}
	}
	return nil
}
