package cli

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/retroenv/retrochip8/internal/options"
	"github.com/retroenv/retrogolib/assert"
)

func TestParseFlags(t *testing.T) {
	oldArgs := os.Args
	t.Cleanup(func() { os.Args = oldArgs })
	os.Args = []string{"prog", "-headless", "game.ch8"}

	opts, emuOpts, err := ParseFlags()
	assert.NoError(t, err)
	assert.Equal(t, "game.ch8", opts.Input)
	assert.True(t, opts.Headless)
	assert.Equal(t, options.DefaultSpeed, emuOpts.Speed)
	assert.Equal(t, options.FaultHalt, emuOpts.FaultPolicy)
}

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, opts options.Program, emuOpts options.Emulator)
	}{
		{
			name: "defaults",
			args: []string{"game.ch8"},
			check: func(t *testing.T, opts options.Program, emuOpts options.Emulator) {
				t.Helper()
				assert.False(t, opts.Disasm)
				assert.False(t, emuOpts.Seeded)
				assert.Equal(t, uint64(0), emuOpts.MaxCycles)
				assert.Equal(t, 150*time.Millisecond, emuOpts.KeyHold)
				assert.Equal(t, 0, len(emuOpts.Breakpoints))
			},
		},
		{
			name: "emulator flags",
			args: []string{"-speed", "0", "-cycles", "500", "-fault", "Skip", "-seed", "0x2a", "-break", "$200, 0x2A4,3ff", "game.ch8"},
			check: func(t *testing.T, opts options.Program, emuOpts options.Emulator) {
				t.Helper()
				assert.Equal(t, 0, emuOpts.Speed)
				assert.Equal(t, uint64(500), emuOpts.MaxCycles)
				assert.Equal(t, options.FaultSkip, emuOpts.FaultPolicy)
				assert.True(t, emuOpts.Seeded)
				assert.Equal(t, uint64(42), emuOpts.Seed)
				assert.Equal(t, []uint16{0x200, 0x2A4, 0x3FF}, emuOpts.Breakpoints)
			},
		},
		{
			name: "program flags",
			args: []string{"-disasm", "-debug", "-q", "game.ch8"},
			check: func(t *testing.T, opts options.Program, emuOpts options.Emulator) {
				t.Helper()
				assert.True(t, opts.Disasm)
				assert.True(t, opts.Debug)
				assert.True(t, opts.Quiet)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, emuOpts, err := parseArgs("prog", tt.args)
			assert.NoError(t, err)
			tt.check(t, opts, emuOpts)
		})
	}
}

func TestParseArgsErrors(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		usage bool
	}{
		{"missing ROM", []string{"-headless"}, true},
		{"flag after ROM", []string{"game.ch8", "-headless"}, true},
		{"invalid fault policy", []string{"-fault", "ignore", "game.ch8"}, false},
		{"invalid breakpoint", []string{"-break", "1000", "game.ch8"}, false},
		{"invalid seed", []string{"-seed", "abc", "game.ch8"}, false},
		{"negative speed", []string{"-speed", "-1", "game.ch8"}, false},
		{"speed too high", []string{"-speed", "2000000000", "game.ch8"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := parseArgs("prog", tt.args)
			assert.Error(t, err)

			var usageErr *UsageError
			assert.Equal(t, tt.usage, errors.As(err, &usageErr))
		})
	}
}

func TestParseAddresses(t *testing.T) {
	addresses, err := parseAddresses("")
	assert.NoError(t, err)
	assert.True(t, addresses == nil)

	_, err = parseAddresses("zz")
	assert.ErrorContains(t, err, "invalid breakpoint address")
}
