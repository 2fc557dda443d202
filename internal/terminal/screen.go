// Package terminal contains the terminal and headless frontends: a renderer
// for the frame buffer and a keypad fed by keyboard input.
package terminal

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/retroenv/retrochip8/internal/machine"
	"golang.org/x/term"
)

const (
	clearScreen = "\x1b[2J"
	cursorHome  = "\x1b[H"
	hideCursor  = "\x1b[?25l"
	showCursor  = "\x1b[?25h"

	// two pixel rows are drawn per text line using half block characters
	screenColumns = machine.DisplayWidth
	screenLines   = machine.DisplayHeight/2 + 1 // status line
)

var halfBlocks = [4]string{" ", "▀", "▄", "█"}

// Screen renders the frame buffer to a terminal.
type Screen struct {
	out    io.Writer
	buf    bytes.Buffer
	closed bool
}

// NewScreen returns a screen that draws to the given terminal. It fails if
// the output is not a terminal or too small to show the whole display.
func NewScreen(out *os.File) (*Screen, error) {
	fd := int(out.Fd())
	if !term.IsTerminal(fd) {
		return nil, errors.New("output is not a terminal, use headless mode")
	}
	width, height, err := term.GetSize(fd)
	if err != nil {
		return nil, fmt.Errorf("getting terminal size: %w", err)
	}
	if width < screenColumns || height < screenLines {
		return nil, fmt.Errorf("terminal size %dx%d is too small, %dx%d required",
			width, height, screenColumns, screenLines)
	}

	s := newScreen(out)
	if _, err := io.WriteString(out, clearScreen+hideCursor); err != nil {
		return nil, fmt.Errorf("initializing terminal: %w", err)
	}
	return s, nil
}

func newScreen(out io.Writer) *Screen {
	return &Screen{out: out}
}

// Render draws the current frame buffer.
func (s *Screen) Render(state *machine.State) error {
	s.buf.Reset()
	s.buf.WriteString(cursorHome)

	for y := 0; y < machine.DisplayHeight; y += 2 {
		for x := range machine.DisplayWidth {
			index := 0
			if state.Pixel(x, y) {
				index |= 1
			}
			if state.Pixel(x, y+1) {
				index |= 2
			}
			s.buf.WriteString(halfBlocks[index])
		}
		// raw mode does not translate line feeds
		s.buf.WriteString("\r\n")
	}

	sound := " "
	if state.SoundActive() {
		sound = "♪"
	}
	fmt.Fprintf(&s.buf, "PC $%04X  I $%04X  DT %3d  ST %3d %s  [Esc] quit", state.PC, state.I,
		state.DelayTimer, state.SoundTimer, sound)

	if _, err := s.out.Write(s.buf.Bytes()); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

// Close restores the cursor and moves it below the display. Repeated calls
// do nothing.
func (s *Screen) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if _, err := io.WriteString(s.out, showCursor+"\r\n"); err != nil {
		return fmt.Errorf("restoring terminal: %w", err)
	}
	return nil
}
