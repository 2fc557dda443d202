package chip8

import (
	"github.com/retroenv/retrogolib/arch/cpu/chip8"
)

// Instruction wraps a retrogolib CHIP-8 instruction definition.
type Instruction struct {
	ins *chip8.Instruction
}

// IsNil returns true if the opcode did not match any instruction.
func (i Instruction) IsNil() bool {
	return i.ins == nil
}

// Name returns the instruction mnemonic.
func (i Instruction) Name() string {
	if i.ins == nil {
		return ""
	}
	return i.ins.Name
}

// IsCall returns true if the instruction is a subroutine call.
func (i Instruction) IsCall() bool {
	return i.ins == chip8.Call
}

// IsJump returns true if the instruction is a jump, absolute or V0 relative.
func (i Instruction) IsJump() bool {
	return i.ins == chip8.Jp
}

// IsReturn returns true if the instruction returns from a subroutine.
func (i Instruction) IsReturn() bool {
	return i.ins == chip8.Ret
}
