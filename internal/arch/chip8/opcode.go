package chip8

import (
	"github.com/retroenv/retrogolib/arch/cpu/chip8"
)

// opcodeSize is the size of CHIP-8 instructions in bytes.
const opcodeSize = 2

// Lookup returns the instruction matching the opcode from the retrogolib
// opcode tables. The result is nil for opcodes that are not part of the
// instruction set.
func Lookup(opcode uint16) Instruction {
	firstNibble := (opcode & 0xF000) >> 12
	for _, op := range chip8.Opcodes[int(firstNibble)] {
		if op.Info.Mask&opcode == op.Info.Value {
			return Instruction{ins: op.Instruction}
		}
	}
	return Instruction{}
}

// decodeOpcode extracts the 16-bit opcode from instruction bytes.
func decodeOpcode(data []byte) (uint16, bool) {
	if len(data) < opcodeSize {
		return 0, false
	}
	return uint16(data[0])<<8 | uint16(data[1]), true
}

// extractRegisterX extracts the X register nibble from a CHIP-8 opcode.
func extractRegisterX(opcode uint16) uint16 {
	return (opcode & 0x0F00) >> 8
}

// extractRegisterY extracts the Y register nibble from a CHIP-8 opcode.
func extractRegisterY(opcode uint16) uint16 {
	return (opcode & 0x00F0) >> 4
}
