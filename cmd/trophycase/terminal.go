package main

import (
	"context"
	"fmt"
	"image/color"
	"os"

	uv "github.com/charmbracelet/ultraviolet"

	"github.com/taigrr/trophycase/pkg/render"
)

// screen draws framebuffers and text onto the terminal with half-block
// cells: each cell shows two vertically stacked pixels.
type screen struct {
	term          *uv.Terminal
	width, height int
}

func openScreen() (*screen, error) {
	term := uv.DefaultTerminal()
	width, height, err := term.GetSize()
	if err != nil {
		return nil, fmt.Errorf("get terminal size: %w", err)
	}
	if err := term.Start(); err != nil {
		return nil, fmt.Errorf("start terminal: %w", err)
	}
	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)

	fmt.Fprint(os.Stdout, "\x1b[?1003h") // Any-event mouse tracking
	fmt.Fprint(os.Stdout, "\x1b[?1006h") // SGR extended mouse mode
	return &screen{term: term, width: width, height: height}, nil
}

func (s *screen) events() <-chan uv.Event {
	return s.term.Events()
}

func (s *screen) resize(width, height int) {
	s.width, s.height = width, height
	s.term.Erase()
	s.term.Resize(width, height)
}

func (s *screen) close() {
	fmt.Fprint(os.Stdout, "\x1b[?1003l")
	fmt.Fprint(os.Stdout, "\x1b[?1006l")
	s.term.ExitAltScreen()
	s.term.ShowCursor()
	s.term.Shutdown(context.Background())
}

// blit scales fb into the cell rectangle r.
func (s *screen) blit(fb *render.Framebuffer, r rect) {
	if fb.Width == 0 || fb.Height == 0 || r.w <= 0 || r.h <= 0 {
		return
	}
	for cy := range r.h {
		top := (2 * cy) * fb.Height / (2 * r.h)
		bot := (2*cy + 1) * fb.Height / (2 * r.h)
		for cx := range r.w {
			px := cx * fb.Width / r.w
			s.term.SetCell(r.x+cx, r.y+cy, &uv.Cell{
				Content: "▀",
				Width:   1,
				Style:   uv.Style{Fg: fb.GetPixel(px, top), Bg: fb.GetPixel(px, bot)},
			})
		}
	}
}

// text writes str at (x, y), clipped to maxWidth cells.
func (s *screen) text(x, y, maxWidth int, str string, fg, bg color.Color) {
	i := 0
	for _, r := range str {
		if i >= maxWidth || x+i >= s.width {
			return
		}
		s.term.SetCell(x+i, y, &uv.Cell{Content: string(r), Width: 1, Style: uv.Style{Fg: fg, Bg: bg}})
		i++
	}
}

// fill clears row y with bg.
func (s *screen) fill(y int, bg color.Color) {
	for x := range s.width {
		s.term.SetCell(x, y, &uv.Cell{Content: " ", Width: 1, Style: uv.Style{Bg: bg}})
	}
}

func (s *screen) display() error {
	return s.term.Display()
}
