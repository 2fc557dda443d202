package machine

import "errors"

// Fault kinds reported to the host. None of them are fatal to the process,
// the host decides whether to halt, skip the instruction or reset.
var (
	ErrUnknownOpcode     = errors.New("unknown opcode")
	ErrStackOverflow     = errors.New("stack overflow")
	ErrStackUnderflow    = errors.New("stack underflow")
	ErrMemoryOutOfBounds = errors.New("memory access out of bounds")
	ErrProgramTooLarge   = errors.New("program too large")
)
