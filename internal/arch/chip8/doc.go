// Package chip8 provides CHIP-8 instruction formatting and program listings.
//
// # Instruction Set
//
// CHIP-8 has 35 instructions, all 2 bytes wide and stored big-endian:
//   - Flow control: SYS, JP, CALL, RET
//   - Conditional skips: SE, SNE, SKP, SKNP
//   - Arithmetic and logic: ADD, SUB, SUBN, OR, AND, XOR, SHR, SHL, RND
//   - Memory and registers: LD in its various forms
//   - Graphics: CLS, DRW
//
// Mnemonics are taken from the retrogolib CHIP-8 opcode tables, operands are
// formatted by this package.
//
// # Usage Example
//
//	fmt.Println(chip8.Format(0xD122)) // drw V1, V2, $2
//
//	err := chip8.Listing(os.Stdout, program, chip8.ProgramStart)
//	if err != nil {
//		return fmt.Errorf("writing listing: %w", err)
//	}
//
// Jump and call targets inside the program are emitted as labels, the
// program start is labeled Start.
package chip8
