package chip8

import (
	"fmt"
	"io"

	"github.com/retroenv/retrogolib/arch/cpu/chip8"
	"github.com/retroenv/retrogolib/set"
)

// ProgramStart is the memory address where CHIP-8 programs are loaded and
// begin execution. Byte 0 of a ROM file is stored at this address.
const ProgramStart = 0x200

// Format returns the assembly representation of an opcode. Opcodes that are
// not part of the instruction set are returned as a data word.
func Format(opcode uint16) string {
	instruction := Lookup(opcode)
	if instruction.IsNil() {
		return fmt.Sprintf(".word $%04X", opcode)
	}

	name := instruction.Name()
	if params := formatInstruction(name, opcode); params != "" {
		return fmt.Sprintf("%s %s", name, params)
	}
	return name
}

// Listing writes a disassembly of the program to w, one instruction per line
// with its address and opcode bytes. Targets of jumps and calls that are
// inside the program are labeled.
func Listing(w io.Writer, program []byte, base uint16) error {
	labels := collectLabels(program, base)

	for offset := 0; offset < len(program); offset += opcodeSize {
		address := base + uint16(offset)
		if address == base {
			if _, err := fmt.Fprintln(w, "Start:"); err != nil {
				return fmt.Errorf("writing label: %w", err)
			}
		} else if labels.Contains(address) {
			if _, err := fmt.Fprintf(w, "%s:\n", labelName(address)); err != nil {
				return fmt.Errorf("writing label: %w", err)
			}
		}

		opcode, ok := decodeOpcode(program[offset:])
		if !ok {
			if _, err := fmt.Fprintf(w, "  %-30s ; $%04X %02X\n",
				fmt.Sprintf(".byte $%02X", program[offset]), address, program[offset]); err != nil {
				return fmt.Errorf("writing data byte: %w", err)
			}
			break
		}

		code := formatLabeled(opcode, base, labels)
		if _, err := fmt.Fprintf(w, "  %-30s ; $%04X %02X %02X\n",
			code, address, program[offset], program[offset+1]); err != nil {
			return fmt.Errorf("writing instruction: %w", err)
		}

		// separate blocks after instructions that do not continue with the next one
		if instruction := Lookup(opcode); instruction.IsReturn() || instruction.IsJump() {
			if _, err := fmt.Fprintln(w); err != nil {
				return fmt.Errorf("writing block separator: %w", err)
			}
		}
	}
	return nil
}

// collectLabels returns all jump and call destinations that point into the program.
func collectLabels(program []byte, base uint16) set.Set[uint16] {
	labels := set.New[uint16]()
	end := uint32(base) + uint32(len(program))

	for offset := 0; offset+1 < len(program); offset += opcodeSize {
		opcode, _ := decodeOpcode(program[offset:])
		if !hasAbsoluteTarget(opcode) {
			continue
		}
		target := opcode & 0x0FFF
		if target >= base && uint32(target) < end {
			labels.Add(target)
		}
	}
	return labels
}

// formatLabeled formats an opcode and replaces absolute jump and call
// targets by their label name.
func formatLabeled(opcode, base uint16, labels set.Set[uint16]) string {
	target := opcode & 0x0FFF
	if !hasAbsoluteTarget(opcode) || (!labels.Contains(target) && target != base) {
		return Format(opcode)
	}

	name := labelName(target)
	if target == base {
		name = "Start"
	}
	return fmt.Sprintf("%s %s", Lookup(opcode).Name(), name)
}

// hasAbsoluteTarget returns whether the opcode is a JP addr or CALL addr.
// JP V0, addr is excluded as its destination is only known at runtime.
func hasAbsoluteTarget(opcode uint16) bool {
	instruction := Lookup(opcode)
	return instruction.IsCall() || (instruction.IsJump() && opcode&0xF000 == 0x1000)
}

func labelName(address uint16) string {
	return fmt.Sprintf("_label_%04x", address)
}

// formatInstruction formats a CHIP-8 instruction with its parameters.
// Returns the formatted parameter string for the given instruction.
func formatInstruction(name string, opcode uint16) string {
	switch name {
	case chip8.Cls.Name, chip8.Ret.Name:
		return "" // No parameters
	case chip8.Jp.Name:
		return formatJumpInstruction(opcode)
	case chip8.Call.Name:
		return fmt.Sprintf("$%03X", opcode&0x0FFF)
	case chip8.Se.Name, chip8.Sne.Name:
		return formatCompareInstruction(opcode)
	case chip8.Ld.Name:
		return formatLoadInstruction(opcode)
	case chip8.Add.Name:
		return formatAddInstruction(opcode)
	case chip8.Or.Name, chip8.And.Name, chip8.Xor.Name, chip8.Sub.Name, chip8.Subn.Name:
		return fmt.Sprintf("V%X, V%X", extractRegisterX(opcode), extractRegisterY(opcode))
	case chip8.Shr.Name, chip8.Shl.Name, chip8.Skp.Name, chip8.Sknp.Name:
		return fmt.Sprintf("V%X", extractRegisterX(opcode))
	case chip8.Rnd.Name:
		return fmt.Sprintf("V%X, $%02X", extractRegisterX(opcode), opcode&0x00FF)
	case chip8.Drw.Name:
		return fmt.Sprintf("V%X, V%X, $%X", extractRegisterX(opcode), extractRegisterY(opcode), opcode&0x000F)
	}
	if opcode&0xF000 == 0x0000 {
		return fmt.Sprintf("$%03X", opcode&0x0FFF) // sys
	}
	return ""
}

// formatJumpInstruction formats jump instructions (JP addr, JP V0+addr).
func formatJumpInstruction(opcode uint16) string {
	switch opcode & 0xF000 {
	case 0x1000:
		return fmt.Sprintf("$%03X", opcode&0x0FFF)
	case 0xB000:
		return fmt.Sprintf("V0, $%03X", opcode&0x0FFF)
	}
	return ""
}

// formatCompareInstruction formats comparison instructions (SE, SNE).
func formatCompareInstruction(opcode uint16) string {
	x := extractRegisterX(opcode)
	switch opcode & 0xF000 {
	case 0x3000, 0x4000:
		return fmt.Sprintf("V%X, $%02X", x, opcode&0x00FF)
	case 0x5000, 0x9000:
		return fmt.Sprintf("V%X, V%X", x, extractRegisterY(opcode))
	}
	return ""
}

// formatLoadInstruction formats all forms of the LD instruction.
func formatLoadInstruction(opcode uint16) string {
	x := extractRegisterX(opcode)
	switch opcode & 0xF000 {
	case 0x6000:
		return fmt.Sprintf("V%X, $%02X", x, opcode&0x00FF)
	case 0x8000:
		return fmt.Sprintf("V%X, V%X", x, extractRegisterY(opcode))
	case 0xA000:
		return fmt.Sprintf("I, $%03X", opcode&0x0FFF)
	case 0xF000:
		return formatMiscLoad(x, opcode&0x00FF)
	}
	return ""
}

func formatMiscLoad(x, sub uint16) string {
	switch sub {
	case 0x07:
		return fmt.Sprintf("V%X, DT", x)
	case 0x0A:
		return fmt.Sprintf("V%X, K", x)
	case 0x15:
		return fmt.Sprintf("DT, V%X", x)
	case 0x18:
		return fmt.Sprintf("ST, V%X", x)
	case 0x29:
		return fmt.Sprintf("F, V%X", x)
	case 0x33:
		return fmt.Sprintf("B, V%X", x)
	case 0x55:
		return fmt.Sprintf("[I], V%X", x)
	case 0x65:
		return fmt.Sprintf("V%X, [I]", x)
	}
	return ""
}

// formatAddInstruction formats add instructions (ADD Vx, byte/Vy, ADD I, Vx).
func formatAddInstruction(opcode uint16) string {
	x := extractRegisterX(opcode)
	switch opcode & 0xF000 {
	case 0x7000:
		return fmt.Sprintf("V%X, $%02X", x, opcode&0x00FF)
	case 0x8000:
		return fmt.Sprintf("V%X, V%X", x, extractRegisterY(opcode))
	case 0xF000:
		return fmt.Sprintf("I, V%X", x)
	}
	return ""
}
