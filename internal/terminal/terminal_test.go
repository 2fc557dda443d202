package terminal

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/retroenv/retrochip8/internal/machine"
	"github.com/retroenv/retrogolib/assert"
)

func TestScreenRender(t *testing.T) {
	var out bytes.Buffer
	screen := newScreen(&out)
	state := machine.New()
	state.Display[0] = 1                       // (0,0) top half
	state.Display[1+1*machine.DisplayWidth] = 1 // (1,1) bottom half
	state.Display[2] = 1                       // (2,0) and (2,1) full block
	state.Display[2+1*machine.DisplayWidth] = 1
	state.SoundTimer = 5

	assert.NoError(t, screen.Render(state))

	lines := strings.Split(strings.TrimPrefix(out.String(), cursorHome), "\r\n")
	assert.Len(t, lines, screenLines)
	assert.True(t, strings.HasPrefix(lines[0], "▀▄█ "))
	assert.Equal(t, machine.DisplayWidth, len([]rune(lines[1])))
	assert.Contains(t, lines[len(lines)-1], "PC $0200")
	assert.Contains(t, lines[len(lines)-1], "♪")
}

func TestScreenClose(t *testing.T) {
	var out bytes.Buffer
	screen := newScreen(&out)

	assert.NoError(t, screen.Close())
	assert.Contains(t, out.String(), showCursor)
}

func TestKeypadMapping(t *testing.T) {
	k := newKeypad(100 * time.Millisecond)
	now := time.Unix(1000, 0)
	k.now = func() time.Time { return now }
	state := machine.New()

	k.events <- 'x'
	k.events <- 'V'
	assert.False(t, k.Poll(state))
	assert.True(t, state.KeyPressed(0x0))
	assert.True(t, state.KeyPressed(0xF))
	assert.False(t, state.KeyPressed(0x1))

	now = now.Add(50 * time.Millisecond)
	k.events <- '1'
	assert.False(t, k.Poll(state))
	assert.True(t, state.KeyPressed(0x0))
	assert.True(t, state.KeyPressed(0x1))

	now = now.Add(60 * time.Millisecond)
	assert.False(t, k.Poll(state))
	assert.False(t, state.KeyPressed(0x0))
	assert.False(t, state.KeyPressed(0xF))
	assert.True(t, state.KeyPressed(0x1))
}

func TestKeypadQuit(t *testing.T) {
	tests := []struct {
		name  string
		input byte
	}{
		{"escape", keyEscape},
		{"ctrl-c", keyCtrlC},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := newKeypad(time.Second)
			k.events <- tt.input
			assert.True(t, k.Poll(machine.New()))
		})
	}
}

func TestKeypadReadClosed(t *testing.T) {
	k := newKeypad(time.Second)
	k.read(strings.NewReader("q"))

	state := machine.New()
	assert.True(t, k.Poll(state))
	assert.True(t, state.KeyPressed(0x4))
	assert.NoError(t, k.Close())
}

func TestHeadless(t *testing.T) {
	h := NewHeadless()
	state := machine.New()
	state.Display[3] = 1

	assert.NoError(t, h.Render(state))
	assert.Equal(t, 1, h.Frames())

	var out bytes.Buffer
	assert.NoError(t, h.Dump(&out))
	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	assert.Len(t, lines, machine.DisplayHeight)
	assert.Equal(t, "...#", lines[0][:4])
}

func TestNullKeypad(t *testing.T) {
	state := machine.New()
	state.SetKey(5, true)

	assert.False(t, NullKeypad{}.Poll(state))
	assert.False(t, state.KeyPressed(5))
}
