package interpreter

// Op identifies one of the base CHIP-8 instructions.
type Op uint8

// Instruction shapes of the base CHIP-8 instruction set.
const (
	OpInvalid Op = iota
	OpSys        // 0nnn
	OpCls        // 00E0
	OpRet        // 00EE
	OpJp         // 1nnn
	OpCall       // 2nnn
	OpSeByte     // 3xnn
	OpSneByte    // 4xnn
	OpSeReg      // 5xy0
	OpLdByte     // 6xnn
	OpAddByte    // 7xnn
	OpLdReg      // 8xy0
	OpOr         // 8xy1
	OpAnd        // 8xy2
	OpXor        // 8xy3
	OpAddReg     // 8xy4
	OpSub        // 8xy5
	OpShr        // 8xy6
	OpSubn       // 8xy7
	OpShl        // 8xyE
	OpSneReg     // 9xy0
	OpLdI        // Annn
	OpJpV0       // Bnnn
	OpRnd        // Cxnn
	OpDrw        // Dxyn
	OpSkp        // Ex9E
	OpSknp       // ExA1
	OpLdVxDT     // Fx07
	OpLdKey      // Fx0A
	OpLdDTVx     // Fx15
	OpLdSTVx     // Fx18
	OpAddI       // Fx1E
	OpLdFont     // Fx29
	OpBcd        // Fx33
	OpStore      // Fx55
	OpLoad       // Fx65

	opCount
)

// Instruction is a decoded opcode with all operand fields extracted.
type Instruction struct {
	Op     Op
	Opcode uint16
	X      uint8  // bits 8-11
	Y      uint8  // bits 4-7
	N      uint8  // bits 0-3
	NN     uint8  // bits 0-7
	NNN    uint16 // bits 0-11
}

// Decode decodes a 16 bit opcode. Opcodes that match no instruction are
// returned with Op set to OpInvalid.
func Decode(opcode uint16) Instruction {
	ins := Instruction{
		Opcode: opcode,
		X:      uint8(opcode>>8) & 0x0F,
		Y:      uint8(opcode>>4) & 0x0F,
		N:      uint8(opcode) & 0x0F,
		NN:     uint8(opcode),
		NNN:    opcode & 0x0FFF,
	}
	ins.Op = decodeOp(opcode, ins)
	return ins
}

func decodeOp(opcode uint16, ins Instruction) Op {
	switch opcode >> 12 {
	case 0x0:
		switch opcode {
		case 0x00E0:
			return OpCls
		case 0x00EE:
			return OpRet
		}
		return OpSys
	case 0x1:
		return OpJp
	case 0x2:
		return OpCall
	case 0x3:
		return OpSeByte
	case 0x4:
		return OpSneByte
	case 0x5:
		if ins.N == 0 {
			return OpSeReg
		}
	case 0x6:
		return OpLdByte
	case 0x7:
		return OpAddByte
	case 0x8:
		return decodeALU(ins.N)
	case 0x9:
		if ins.N == 0 {
			return OpSneReg
		}
	case 0xA:
		return OpLdI
	case 0xB:
		return OpJpV0
	case 0xC:
		return OpRnd
	case 0xD:
		return OpDrw
	case 0xE:
		switch ins.NN {
		case 0x9E:
			return OpSkp
		case 0xA1:
			return OpSknp
		}
	case 0xF:
		return decodeMisc(ins.NN)
	}
	return OpInvalid
}

func decodeALU(n uint8) Op {
	switch n {
	case 0x0:
		return OpLdReg
	case 0x1:
		return OpOr
	case 0x2:
		return OpAnd
	case 0x3:
		return OpXor
	case 0x4:
		return OpAddReg
	case 0x5:
		return OpSub
	case 0x6:
		return OpShr
	case 0x7:
		return OpSubn
	case 0xE:
		return OpShl
	default:
		return OpInvalid
	}
}

func decodeMisc(nn uint8) Op {
	switch nn {
	case 0x07:
		return OpLdVxDT
	case 0x0A:
		return OpLdKey
	case 0x15:
		return OpLdDTVx
	case 0x18:
		return OpLdSTVx
	case 0x1E:
		return OpAddI
	case 0x29:
		return OpLdFont
	case 0x33:
		return OpBcd
	case 0x55:
		return OpStore
	case 0x65:
		return OpLoad
	default:
		return OpInvalid
	}
}
