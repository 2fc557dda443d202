package terminal

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/retroenv/retrochip8/internal/machine"
	"golang.org/x/term"
)

const (
	keyEscape = 0x1b
	keyCtrlC  = 0x03
)

// keyMap maps the conventional QWERTY layout to the CHIP-8 hex keypad:
//
//	1 2 3 4      1 2 3 C
//	q w e r  ->  4 5 6 D
//	a s d f      7 8 9 E
//	z x c v      A 0 B F
var keyMap = map[byte]byte{
	'1': 0x1, '2': 0x2, '3': 0x3, '4': 0xC,
	'q': 0x4, 'w': 0x5, 'e': 0x6, 'r': 0xD,
	'a': 0x7, 's': 0x8, 'd': 0x9, 'f': 0xE,
	'z': 0xA, 'x': 0x0, 'c': 0xB, 'v': 0xF,
}

// Keypad reads key presses from a terminal in raw mode. Terminals do not
// report key releases, a key counts as held for the hold duration after its
// last press or auto repeat.
type Keypad struct {
	events  chan byte
	hold    time.Duration
	now     func() time.Time
	pressed [machine.KeyCount]time.Time
	quit    bool

	restore func() error
}

// NewKeypad switches the terminal input to raw mode and starts reading keys.
func NewKeypad(in *os.File, hold time.Duration) (*Keypad, error) {
	fd := int(in.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("setting terminal raw mode: %w", err)
	}

	k := newKeypad(hold)
	k.restore = func() error {
		return term.Restore(fd, oldState)
	}
	go k.read(in)
	return k, nil
}

func newKeypad(hold time.Duration) *Keypad {
	return &Keypad{
		events: make(chan byte, 64),
		hold:   hold,
		now:    time.Now,
	}
}

// read forwards input bytes until the reader fails. The goroutine blocks in
// Read for the remaining lifetime of the process.
func (k *Keypad) read(in io.Reader) {
	buf := make([]byte, 16)
	for {
		n, err := in.Read(buf)
		for _, b := range buf[:n] {
			k.events <- b
		}
		if err != nil {
			close(k.events)
			return
		}
	}
}

// Poll applies all pending key presses to the machine key state.
func (k *Keypad) Poll(state *machine.State) bool {
	now := k.now()

drain:
	for {
		select {
		case b, ok := <-k.events:
			if !ok {
				k.quit = true
				break drain
			}
			k.handle(b, now)
		default:
			break drain
		}
	}

	for key := range byte(machine.KeyCount) {
		pressedAt := k.pressed[key]
		state.SetKey(key, !pressedAt.IsZero() && now.Sub(pressedAt) < k.hold)
	}
	return k.quit
}

func (k *Keypad) handle(b byte, now time.Time) {
	switch b {
	case keyEscape, keyCtrlC:
		k.quit = true
		return
	}
	if b >= 'A' && b <= 'Z' {
		b += 'a' - 'A'
	}
	if key, ok := keyMap[b]; ok {
		k.pressed[key] = now
	}
}

// Close restores the previous terminal mode. Repeated calls do nothing.
func (k *Keypad) Close() error {
	if k.restore == nil {
		return nil
	}
	restore := k.restore
	k.restore = nil
	if err := restore(); err != nil {
		return fmt.Errorf("restoring terminal mode: %w", err)
	}
	return nil
}
