package terminal

import (
	"fmt"
	"io"
	"strings"

	"github.com/retroenv/retrochip8/internal/machine"
)

// Headless is a screen that keeps the last rendered frame in memory.
type Headless struct {
	frame  [machine.DisplaySize]byte
	frames int
}

// NewHeadless returns a new headless screen.
func NewHeadless() *Headless {
	return &Headless{}
}

// Render stores a copy of the frame buffer.
func (h *Headless) Render(state *machine.State) error {
	h.frame = state.Display
	h.frames++
	return nil
}

// Frames returns the number of rendered frames.
func (h *Headless) Frames() int {
	return h.frames
}

// Dump writes the last frame as text, '#' for set and '.' for unset pixels.
func (h *Headless) Dump(w io.Writer) error {
	var sb strings.Builder
	for y := range machine.DisplayHeight {
		for x := range machine.DisplayWidth {
			if h.frame[x+y*machine.DisplayWidth] != 0 {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("writing frame dump: %w", err)
	}
	return nil
}

// NullKeypad is a keypad without any keys pressed.
type NullKeypad struct{}

// Poll releases all keys.
func (NullKeypad) Poll(state *machine.State) bool {
	state.ReleaseKeys()
	return false
}
