package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/retroenv/retrochip8/internal/interpreter"
	"github.com/retroenv/retrochip8/internal/machine"
	"github.com/retroenv/retrochip8/internal/options"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

type mockScreen struct {
	frames int
	lit    int
}

func (m *mockScreen) Render(state *machine.State) error {
	m.frames++
	m.lit = 0
	for _, pixel := range state.Display {
		m.lit += int(pixel)
	}
	return nil
}

type mockKeypad struct {
	polls     int
	quitAfter int // 0 never quits
	key       int // key to hold down, -1 for none
}

func (m *mockKeypad) Poll(state *machine.State) bool {
	m.polls++
	if m.key >= 0 {
		state.SetKey(byte(m.key), true)
	}
	return m.quitAfter > 0 && m.polls > m.quitAfter
}

func program(opcodes ...uint16) []byte {
	data := make([]byte, 0, len(opcodes)*2)
	for _, op := range opcodes {
		data = append(data, byte(op>>8), byte(op))
	}
	return data
}

func newTestRunner(t *testing.T, opts options.Emulator, keypad *mockKeypad, opcodes ...uint16) (*Runner, *mockScreen) {
	t.Helper()
	screen := &mockScreen{}
	r := New(log.NewTestLogger(t), interpreter.New(), opts, screen, keypad)
	assert.NoError(t, r.Load(program(opcodes...)))
	return r, screen
}

func unthrottled() options.Emulator {
	opts := options.NewEmulator()
	opts.Speed = 0
	return opts
}

func TestRunDrawProgram(t *testing.T) {
	opts := unthrottled()
	opts.MaxCycles = 100
	r, screen := newTestRunner(t, opts, &mockKeypad{key: -1},
		0x00E0, 0xA000, 0x6105, 0x6205, 0xD122, 0x1200)

	stats, err := r.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, uint64(100), stats.Cycles)
	assert.Equal(t, uint64(0), stats.Faults)
	assert.True(t, screen.frames > 1)
	assert.False(t, r.State().DisplayDirty)
}

func TestRunHaltsOnFault(t *testing.T) {
	r, _ := newTestRunner(t, unthrottled(), &mockKeypad{key: -1}, 0x6001, 0xFFFF)

	stats, err := r.Run(context.Background())
	assert.True(t, errors.Is(err, machine.ErrUnknownOpcode))
	assert.Equal(t, uint64(2), stats.Cycles)
	assert.Equal(t, uint64(1), stats.Faults)
	assert.Equal(t, uint16(0x202), r.State().PC)
}

func TestRunSkipsFault(t *testing.T) {
	opts := unthrottled()
	opts.FaultPolicy = options.FaultSkip
	opts.MaxCycles = 3
	r, _ := newTestRunner(t, opts, &mockKeypad{key: -1}, 0xFFFF, 0x6107, 0x1204)

	stats, err := r.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, uint64(1), stats.Faults)
	assert.Equal(t, byte(7), r.State().V[1])
}

func TestRunResetsOnFault(t *testing.T) {
	opts := unthrottled()
	opts.FaultPolicy = options.FaultReset
	opts.MaxCycles = 4
	// the first pass underflows the stack at $204
	r, _ := newTestRunner(t, opts, &mockKeypad{key: -1}, 0x7101, 0x1204, 0x00EE)

	stats, err := r.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, uint64(1), stats.Faults)
	assert.Equal(t, uint64(1), stats.Resets)
	assert.Equal(t, byte(1), r.State().V[1])
	assert.Equal(t, uint16(0x202), r.State().PC)
}

func TestRunFetchFaultIsNotSkipped(t *testing.T) {
	opts := unthrottled()
	opts.FaultPolicy = options.FaultSkip
	r, _ := newTestRunner(t, opts, &mockKeypad{key: -1}, 0x1FFF)

	_, err := r.Run(context.Background())
	assert.True(t, errors.Is(err, machine.ErrMemoryOutOfBounds))
}

func TestRunBreakpoint(t *testing.T) {
	opts := unthrottled()
	opts.Breakpoints = []uint16{0x204}
	r, _ := newTestRunner(t, opts, &mockKeypad{key: -1}, 0x6001, 0x6102, 0x6203)

	stats, err := r.Run(context.Background())
	assert.True(t, errors.Is(err, ErrBreakpoint))
	assert.Equal(t, uint64(2), stats.Cycles)
	assert.Equal(t, uint16(0x204), r.State().PC)
	assert.Equal(t, byte(0), r.State().V[2])
}

func TestRunQuit(t *testing.T) {
	r, _ := newTestRunner(t, unthrottled(), &mockKeypad{key: -1, quitAfter: 5}, 0x1200)

	stats, err := r.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, uint64(5), stats.Cycles)
}

func TestRunWaitsForKey(t *testing.T) {
	opts := unthrottled()
	opts.MaxCycles = 10
	keypad := &mockKeypad{key: 0xB}
	r, _ := newTestRunner(t, opts, keypad, 0xF30A, 0x1202)

	_, err := r.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, byte(0xB), r.State().V[3])
	assert.Equal(t, uint16(0x202), r.State().PC)
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r, _ := newTestRunner(t, options.NewEmulator(), &mockKeypad{key: -1}, 0x1200)

	stats, err := r.Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, uint64(0), stats.Cycles)
}

func TestRunTimersCountDown(t *testing.T) {
	opts := options.NewEmulator()
	opts.Speed = 1000
	r, _ := newTestRunner(t, opts, &mockKeypad{key: -1}, 0x6178, 0xF115, 0x1204)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := r.Run(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.True(t, r.State().DelayTimer < 0x78)
}

func TestRunTimersCountCycles(t *testing.T) {
	opts := unthrottled()
	opts.MaxCycles = 2 + 5*options.CyclesPerTimerTick
	r, _ := newTestRunner(t, opts, &mockKeypad{key: -1}, 0x6178, 0xF115, 0x1204)

	stats, err := r.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, opts.MaxCycles, stats.Cycles)
	assert.Equal(t, byte(0x78-5), r.State().DelayTimer)
}

func TestLoadTooLarge(t *testing.T) {
	r := New(log.NewTestLogger(t), interpreter.New(), unthrottled(), &mockScreen{}, &mockKeypad{key: -1})

	err := r.Load(make([]byte, machine.MaxProgramLen+1))
	assert.True(t, errors.Is(err, machine.ErrProgramTooLarge))
}
