package interpreter

import (
	"github.com/retroenv/retrochip8/internal/machine"
)

type handler func(in *Interpreter, s *machine.State, ins Instruction) error

// handlers maps every instruction shape to its implementation. Every handler
// advances the program counter itself and validates all memory and stack
// accesses before it modifies any state.
var handlers = [opCount]handler{
	OpSys:     sys,
	OpCls:     cls,
	OpRet:     ret,
	OpJp:      jp,
	OpCall:    call,
	OpSeByte:  seByte,
	OpSneByte: sneByte,
	OpSeReg:   seReg,
	OpLdByte:  ldByte,
	OpAddByte: addByte,
	OpLdReg:   ldReg,
	OpOr:      or,
	OpAnd:     and,
	OpXor:     xor,
	OpAddReg:  addReg,
	OpSub:     sub,
	OpShr:     shr,
	OpSubn:    subn,
	OpShl:     shl,
	OpSneReg:  sneReg,
	OpLdI:     ldI,
	OpJpV0:    jpV0,
	OpRnd:     rnd,
	OpDrw:     drw,
	OpSkp:     skp,
	OpSknp:    sknp,
	OpLdVxDT:  ldVxDT,
	OpLdKey:   ldKey,
	OpLdDTVx:  ldDTVx,
	OpLdSTVx:  ldSTVx,
	OpAddI:    addI,
	OpLdFont:  ldFont,
	OpBcd:     bcd,
	OpStore:   store,
	OpLoad:    load,
}

func next(s *machine.State) {
	s.PC += opcodeSize
}

func skipIf(s *machine.State, condition bool) {
	if condition {
		s.PC += 2 * opcodeSize
		return
	}
	s.PC += opcodeSize
}

func flag(set bool) byte {
	if set {
		return 1
	}
	return 0
}

// sys calls a native machine code routine on the original hardware, it is ignored.
func sys(_ *Interpreter, s *machine.State, _ Instruction) error {
	next(s)
	return nil
}

func cls(_ *Interpreter, s *machine.State, _ Instruction) error {
	s.Display = [machine.DisplaySize]byte{}
	s.DisplayDirty = true
	next(s)
	return nil
}

func ret(_ *Interpreter, s *machine.State, _ Instruction) error {
	address, err := s.Pop()
	if err != nil {
		return err
	}
	s.PC = address
	return nil
}

func jp(_ *Interpreter, s *machine.State, ins Instruction) error {
	s.PC = ins.NNN
	return nil
}

func call(_ *Interpreter, s *machine.State, ins Instruction) error {
	if err := s.Push(s.PC + opcodeSize); err != nil {
		return err
	}
	s.PC = ins.NNN
	return nil
}

func seByte(_ *Interpreter, s *machine.State, ins Instruction) error {
	skipIf(s, s.V[ins.X] == ins.NN)
	return nil
}

func sneByte(_ *Interpreter, s *machine.State, ins Instruction) error {
	skipIf(s, s.V[ins.X] != ins.NN)
	return nil
}

func seReg(_ *Interpreter, s *machine.State, ins Instruction) error {
	skipIf(s, s.V[ins.X] == s.V[ins.Y])
	return nil
}

func sneReg(_ *Interpreter, s *machine.State, ins Instruction) error {
	skipIf(s, s.V[ins.X] != s.V[ins.Y])
	return nil
}

func ldByte(_ *Interpreter, s *machine.State, ins Instruction) error {
	s.V[ins.X] = ins.NN
	next(s)
	return nil
}

// addByte wraps at 8 bits and leaves VF untouched.
func addByte(_ *Interpreter, s *machine.State, ins Instruction) error {
	s.V[ins.X] += ins.NN
	next(s)
	return nil
}

func ldReg(_ *Interpreter, s *machine.State, ins Instruction) error {
	s.V[ins.X] = s.V[ins.Y]
	next(s)
	return nil
}

func or(_ *Interpreter, s *machine.State, ins Instruction) error {
	s.V[ins.X] |= s.V[ins.Y]
	next(s)
	return nil
}

func and(_ *Interpreter, s *machine.State, ins Instruction) error {
	s.V[ins.X] &= s.V[ins.Y]
	next(s)
	return nil
}

func xor(_ *Interpreter, s *machine.State, ins Instruction) error {
	s.V[ins.X] ^= s.V[ins.Y]
	next(s)
	return nil
}

// The ALU handlers below read both operands before writing VX, and write VF
// last, so that VF used as VX or VY ends up holding the flag.

func addReg(_ *Interpreter, s *machine.State, ins Instruction) error {
	sum := uint16(s.V[ins.X]) + uint16(s.V[ins.Y])
	s.V[ins.X] = byte(sum)
	s.V[machine.FlagRegister] = flag(sum > 0xFF)
	next(s)
	return nil
}

func sub(_ *Interpreter, s *machine.State, ins Instruction) error {
	vx, vy := s.V[ins.X], s.V[ins.Y]
	s.V[ins.X] = vx - vy
	s.V[machine.FlagRegister] = flag(vx >= vy)
	next(s)
	return nil
}

func subn(_ *Interpreter, s *machine.State, ins Instruction) error {
	vx, vy := s.V[ins.X], s.V[ins.Y]
	s.V[ins.X] = vy - vx
	s.V[machine.FlagRegister] = flag(vy >= vx)
	next(s)
	return nil
}

func shr(_ *Interpreter, s *machine.State, ins Instruction) error {
	vx := s.V[ins.X]
	s.V[ins.X] = vx >> 1
	s.V[machine.FlagRegister] = vx & 0x01
	next(s)
	return nil
}

func shl(_ *Interpreter, s *machine.State, ins Instruction) error {
	vx := s.V[ins.X]
	s.V[ins.X] = vx << 1
	s.V[machine.FlagRegister] = vx >> 7
	next(s)
	return nil
}

func ldI(_ *Interpreter, s *machine.State, ins Instruction) error {
	s.I = ins.NNN
	next(s)
	return nil
}

// jpV0 may target an address past the end of memory, the following fetch
// reports it.
func jpV0(_ *Interpreter, s *machine.State, ins Instruction) error {
	s.PC = ins.NNN + uint16(s.V[0])
	return nil
}

func rnd(in *Interpreter, s *machine.State, ins Instruction) error {
	s.V[ins.X] = in.random() & ins.NN
	next(s)
	return nil
}

// drw XORs an 8 pixel wide sprite of N rows read from I onto the screen.
// The origin wraps around the screen, pixels beyond the right and bottom
// edges are clipped.
func drw(_ *Interpreter, s *machine.State, ins Instruction) error {
	sprite, err := s.ReadSlice(s.I, int(ins.N))
	if err != nil {
		return err
	}

	x0 := int(s.V[ins.X]) % machine.DisplayWidth
	y0 := int(s.V[ins.Y]) % machine.DisplayHeight
	var collision bool

	for row, bits := range sprite {
		y := y0 + row
		if y >= machine.DisplayHeight {
			break
		}
		for col := range 8 {
			x := x0 + col
			if x >= machine.DisplayWidth {
				break
			}
			if bits&(0x80>>col) == 0 {
				continue
			}
			pixel := &s.Display[x+y*machine.DisplayWidth]
			if *pixel != 0 {
				collision = true
			}
			*pixel ^= 1
		}
	}

	s.V[machine.FlagRegister] = flag(collision)
	s.DisplayDirty = true
	next(s)
	return nil
}

func skp(_ *Interpreter, s *machine.State, ins Instruction) error {
	skipIf(s, s.KeyPressed(s.V[ins.X]))
	return nil
}

func sknp(_ *Interpreter, s *machine.State, ins Instruction) error {
	skipIf(s, !s.KeyPressed(s.V[ins.X]))
	return nil
}

func ldVxDT(_ *Interpreter, s *machine.State, ins Instruction) error {
	s.V[ins.X] = s.DelayTimer
	next(s)
	return nil
}

// ldKey waits for a key press. Only keys that were released at the end of
// the previous instruction count, a key held since before the wait does not
// complete it. While waiting the program counter is not advanced, so the host
// executes this instruction again on the next step. The lowest pressed key wins.
func ldKey(_ *Interpreter, s *machine.State, ins Instruction) error {
	for key := range byte(machine.KeyCount) {
		if s.KeyNewlyPressed(key) {
			s.V[ins.X] = key
			next(s)
			return nil
		}
	}
	return nil
}

func ldDTVx(_ *Interpreter, s *machine.State, ins Instruction) error {
	s.DelayTimer = s.V[ins.X]
	next(s)
	return nil
}

func ldSTVx(_ *Interpreter, s *machine.State, ins Instruction) error {
	s.SoundTimer = s.V[ins.X]
	next(s)
	return nil
}

// addI wraps at 16 bits and leaves VF untouched.
func addI(_ *Interpreter, s *machine.State, ins Instruction) error {
	s.I += uint16(s.V[ins.X])
	next(s)
	return nil
}

func ldFont(_ *Interpreter, s *machine.State, ins Instruction) error {
	s.I = machine.FontAddress(s.V[ins.X])
	next(s)
	return nil
}

func bcd(_ *Interpreter, s *machine.State, ins Instruction) error {
	v := s.V[ins.X]
	digits := []byte{v / 100, v / 10 % 10, v % 10}
	if err := s.WriteSlice(s.I, digits); err != nil {
		return err
	}
	next(s)
	return nil
}

// store copies V0..VX inclusive to memory at I, I is not modified.
func store(_ *Interpreter, s *machine.State, ins Instruction) error {
	if err := s.WriteSlice(s.I, s.V[:ins.X+1]); err != nil {
		return err
	}
	next(s)
	return nil
}

// load copies memory at I into V0..VX inclusive, I is not modified.
func load(_ *Interpreter, s *machine.State, ins Instruction) error {
	data, err := s.ReadSlice(s.I, int(ins.X)+1)
	if err != nil {
		return err
	}
	copy(s.V[:], data)
	next(s)
	return nil
}
