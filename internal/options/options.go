// Package options contains the program options.
package options

import (
	"fmt"
	"strings"
	"time"
)

// Parameters contains file path options.
type Parameters struct {
	Input string // ROM file to run
}

// Flags contains behavior options.
type Flags struct {
	Disasm   bool // print a listing of the ROM and exit
	Headless bool // run without terminal display and keyboard
	Debug    bool
	Quiet    bool
}

// Program options of the emulator.
type Program struct {
	Parameters
	Flags
}

// FaultPolicy defines how the host reacts to an instruction fault.
type FaultPolicy string

// Supported fault policies.
const (
	FaultHalt  FaultPolicy = "halt"  // stop the run and report the fault
	FaultSkip  FaultPolicy = "skip"  // log the fault and continue with the next instruction
	FaultReset FaultPolicy = "reset" // reinitialize the machine and reload the program
)

// ParseFaultPolicy returns the fault policy for the given name.
func ParseFaultPolicy(name string) (FaultPolicy, error) {
	policy := FaultPolicy(strings.ToLower(name))
	switch policy {
	case FaultHalt, FaultSkip, FaultReset:
		return policy, nil
	default:
		return "", fmt.Errorf("unsupported fault policy: %s. Valid options: halt, skip, reset", name)
	}
}

// Emulator defines options to control the emulation run.
type Emulator struct {
	Speed       int           // instructions per second, 0 runs unthrottled
	MaxCycles   uint64        // stop after this many instructions, 0 for no limit
	FaultPolicy FaultPolicy   // reaction to instruction faults
	Breakpoints []uint16      // stop before executing an instruction at these addresses
	Seed        uint64        // seed for the random number instruction
	Seeded      bool          // whether Seed is set
	KeyHold     time.Duration // how long a terminal key press is held down
}

// DefaultSpeed is the default number of instructions executed per second.
const DefaultSpeed = 700

// MaxSpeed is the highest number of instructions per second that can be paced.
const MaxSpeed = int(time.Second)

// TimerFrequency is the rate in Hz at which the delay and sound timers count down.
const TimerFrequency = 60

// CyclesPerTimerTick is the number of instructions between two timer ticks
// when an unthrottled run is limited by a cycle count.
const CyclesPerTimerTick = DefaultSpeed / TimerFrequency

// NewEmulator returns a new options instance with default options.
func NewEmulator() Emulator {
	return Emulator{
		Speed:       DefaultSpeed,
		FaultPolicy: FaultHalt,
		KeyHold:     150 * time.Millisecond,
	}
}
