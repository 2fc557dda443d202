// Package interpreter implements the CHIP-8 fetch-decode-execute cycle.
package interpreter

import (
	"fmt"
	"math/rand/v2"

	"github.com/retroenv/retrochip8/internal/arch/chip8"
	"github.com/retroenv/retrochip8/internal/machine"
	"github.com/retroenv/retrogolib/log"
)

const opcodeSize = 2

// Fault is returned by Step when an instruction can not be executed.
// The machine state is left exactly as it was before the step.
type Fault struct {
	Address uint16 // program counter of the faulting instruction
	Opcode  uint16 // zero if the fetch itself failed
	Err     error  // one of the machine.Err* fault kinds
}

func (f *Fault) Error() string {
	return fmt.Sprintf("fault at $%04X (opcode $%04X): %v", f.Address, f.Opcode, f.Err)
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithRandom sets the source of random bytes used by the Cxnn instruction.
func WithRandom(random func() byte) Option {
	return func(in *Interpreter) {
		in.random = random
	}
}

// WithSeed makes the random source deterministic.
func WithSeed(seed uint64) Option {
	return func(in *Interpreter) {
		rng := rand.New(rand.NewPCG(seed, seed))
		in.random = func() byte {
			return byte(rng.Uint32())
		}
	}
}

// WithTrace logs every executed instruction at debug level.
func WithTrace(logger *log.Logger) Option {
	return func(in *Interpreter) {
		in.trace = logger
	}
}

// Interpreter executes CHIP-8 instructions on a machine state.
// It holds no machine state itself, a single interpreter can step any
// number of independent machines from the same goroutine.
type Interpreter struct {
	random func() byte
	trace  *log.Logger
}

// New returns a new interpreter.
func New(options ...Option) *Interpreter {
	in := &Interpreter{
		random: func() byte {
			return byte(rand.Uint32())
		},
	}
	for _, option := range options {
		option(in)
	}
	return in
}

// Step executes exactly one instruction. Faults are returned as *Fault.
func (in *Interpreter) Step(s *machine.State) error {
	pc := s.PC
	opcode, err := fetch(s)
	if err != nil {
		return &Fault{Address: pc, Err: err}
	}

	ins := Decode(opcode)
	if in.trace != nil {
		in.trace.Debug("Executing instruction",
			log.Hex("pc", pc),
			log.Hex("opcode", opcode),
			log.String("code", chip8.Format(opcode)))
	}

	handler := handlers[ins.Op]
	if handler == nil {
		return &Fault{Address: pc, Opcode: opcode, Err: machine.ErrUnknownOpcode}
	}
	if err := handler(in, s, ins); err != nil {
		return &Fault{Address: pc, Opcode: opcode, Err: err}
	}
	s.LatchKeys()
	return nil
}

// fetch reads the big-endian opcode at the program counter.
func fetch(s *machine.State) (uint16, error) {
	data, err := s.ReadSlice(s.PC, opcodeSize)
	if err != nil {
		return 0, fmt.Errorf("fetching opcode: %w", err)
	}
	return uint16(data[0])<<8 | uint16(data[1]), nil
}
