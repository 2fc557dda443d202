// Package runner implements the host loop that drives the interpreter,
// paces instructions and timers and connects the machine to its frontends.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/retroenv/retrochip8/internal/interpreter"
	"github.com/retroenv/retrochip8/internal/machine"
	"github.com/retroenv/retrochip8/internal/options"
	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrogolib/set"
)

// ErrBreakpoint is returned when the program counter reaches a breakpoint.
var ErrBreakpoint = errors.New("breakpoint reached")

// Screen renders the frame buffer of the machine.
type Screen interface {
	Render(state *machine.State) error
}

// Keypad updates the key state of the machine before every instruction.
// It returns true if the user requested to quit.
type Keypad interface {
	Poll(state *machine.State) bool
}

// Stats contains counters of a run.
type Stats struct {
	Cycles uint64 // executed instructions, including faulting ones
	Frames uint64 // rendered frames
	Faults uint64
	Resets uint64
}

// Runner executes a program on a machine.
type Runner struct {
	logger      *log.Logger
	interpreter *interpreter.Interpreter
	opts        options.Emulator
	screen      Screen
	keypad      Keypad

	state       *machine.State
	program     []byte
	breakpoints set.Set[uint16]
	stats       Stats

	cycleTimers bool // tick timers by executed instructions instead of wall clock
}

// New returns a new runner.
func New(logger *log.Logger, interp *interpreter.Interpreter, opts options.Emulator,
	screen Screen, keypad Keypad) *Runner {

	breakpoints := set.New[uint16]()
	for _, address := range opts.Breakpoints {
		breakpoints.Add(address)
	}

	return &Runner{
		logger:      logger,
		interpreter: interp,
		opts:        opts,
		screen:      screen,
		keypad:      keypad,
		state:       machine.New(),
		breakpoints: breakpoints,
	}
}

// Load initializes the machine and loads the program. The program is kept
// to reload it when the machine is reset after a fault.
func (r *Runner) Load(program []byte) error {
	r.state.Reset()
	if err := r.state.LoadProgram(program); err != nil {
		return fmt.Errorf("loading program: %w", err)
	}
	r.program = program
	return nil
}

// State returns the machine state.
func (r *Runner) State() *machine.State {
	return r.state
}

// Run executes the program until the context is canceled, the cycle limit
// or a breakpoint is reached, the user quits or a fault halts the machine.
func (r *Runner) Run(ctx context.Context) (Stats, error) {
	var instructionTick <-chan time.Time
	if r.opts.Speed > 0 {
		interval := max(time.Second/time.Duration(r.opts.Speed), time.Nanosecond)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		instructionTick = ticker.C
	}

	// unthrottled runs with a cycle limit are reproducible, their timers
	// count executed instructions
	var timerTick <-chan time.Time
	r.cycleTimers = r.opts.Speed == 0 && r.opts.MaxCycles > 0
	if !r.cycleTimers {
		timerTicker := time.NewTicker(time.Second / options.TimerFrequency)
		defer timerTicker.Stop()
		timerTick = timerTicker.C
	}

	if err := r.render(); err != nil {
		return r.stats, err
	}

	for {
		if r.opts.MaxCycles > 0 && r.stats.Cycles >= r.opts.MaxCycles {
			r.logger.Debug("Cycle limit reached", log.Int("cycles", int(r.stats.Cycles)))
			return r.stats, nil
		}

		if err := r.wait(ctx, instructionTick, timerTick); err != nil {
			return r.stats, err
		}

		if r.keypad.Poll(r.state) {
			r.logger.Info("Quit requested")
			return r.stats, nil
		}

		if r.breakpoints.Contains(r.state.PC) {
			r.logger.Info("Breakpoint reached", log.Hex("address", r.state.PC))
			return r.stats, fmt.Errorf("%w at $%04X", ErrBreakpoint, r.state.PC)
		}

		if err := r.step(); err != nil {
			return r.stats, err
		}

		if r.state.DisplayDirty {
			if err := r.render(); err != nil {
				return r.stats, err
			}
		}
	}
}

// wait blocks until the next instruction is due, decrementing the timers
// whenever a timer tick passes. Without an instruction ticker it only
// processes pending timer ticks.
func (r *Runner) wait(ctx context.Context, instructionTick, timerTick <-chan time.Time) error {
	if instructionTick == nil {
		select {
		case <-ctx.Done():
			return fmt.Errorf("running program: %w", ctx.Err())
		case <-timerTick:
			r.state.TickTimers()
		default:
		}
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("running program: %w", ctx.Err())
		case <-timerTick:
			r.state.TickTimers()
		case <-instructionTick:
			return nil
		}
	}
}

func (r *Runner) step() error {
	err := r.interpreter.Step(r.state)
	r.stats.Cycles++
	if r.cycleTimers && r.stats.Cycles%options.CyclesPerTimerTick == 0 {
		r.state.TickTimers()
	}
	if err == nil {
		return nil
	}
	return r.handleFault(err)
}

// handleFault applies the configured fault policy.
func (r *Runner) handleFault(err error) error {
	var fault *interpreter.Fault
	if !errors.As(err, &fault) {
		return fmt.Errorf("executing instruction: %w", err)
	}
	r.stats.Faults++

	switch r.opts.FaultPolicy {
	case options.FaultSkip:
		// a failed fetch can not be skipped, the next fetch would fail as well
		if fault.Opcode == 0 && errors.Is(fault.Err, machine.ErrMemoryOutOfBounds) {
			return fmt.Errorf("executing instruction: %w", err)
		}
		r.logger.Warn("Skipping faulting instruction",
			log.Hex("address", fault.Address),
			log.Hex("opcode", fault.Opcode),
			log.Err(fault.Err))
		r.state.PC = fault.Address + 2
		return nil

	case options.FaultReset:
		r.logger.Warn("Resetting machine after fault",
			log.Hex("address", fault.Address),
			log.Hex("opcode", fault.Opcode),
			log.Err(fault.Err))
		r.stats.Resets++
		if err := r.Load(r.program); err != nil {
			return err
		}
		return r.render()

	default:
		return fmt.Errorf("executing instruction: %w", err)
	}
}

func (r *Runner) render() error {
	if err := r.screen.Render(r.state); err != nil {
		return fmt.Errorf("rendering frame: %w", err)
	}
	r.state.ClearDirty()
	r.stats.Frames++
	return nil
}
