// Package machine contains the complete mutable state of a CHIP-8 virtual machine.
//
// The state is owned by a single execution context. The interpreter mutates it
// one instruction at a time, while external collaborators fill the key pad,
// decrement the timers and consume the frame buffer.
package machine

import (
	"fmt"
)

// CHIP-8 memory layout and machine dimensions.
//
//	0x000-0x04F: built-in font
//	0x050-0x1FF: reserved
//	0x200-0xFFF: program code and data
const (
	MemorySize    = 4096
	ProgramStart  = 0x200
	MaxAddress    = MemorySize - 1
	MaxProgramLen = MemorySize - ProgramStart

	RegisterCount = 16
	StackSize     = 16
	KeyCount      = 16

	DisplayWidth  = 64
	DisplayHeight = 32
	DisplaySize   = DisplayWidth * DisplayHeight

	// FlagRegister is the index of VF, which doubles as carry, borrow and collision flag.
	FlagRegister = 0xF
)

// State is the CHIP-8 CPU, memory, display and input state.
type State struct {
	Memory [MemorySize]byte
	V      [RegisterCount]byte // general purpose registers V0..VF
	I      uint16              // index register
	PC     uint16              // address of the next instruction to fetch

	Stack [StackSize]uint16
	SP    uint8 // next free stack slot

	DelayTimer byte
	SoundTimer byte

	Display      [DisplaySize]byte // row-major, one byte per pixel, 0 or 1
	DisplayDirty bool              // set by the interpreter, cleared by the renderer

	Keys     [KeyCount]byte // non zero while the key is held down
	LastKeys [KeyCount]byte // keys held at the end of the previous instruction
}

// New returns an initialized machine state.
func New() *State {
	s := &State{}
	s.Reset()
	return s
}

// Reset initializes the state: all cells zeroed, the font copied to the
// start of memory and the program counter set to the program start.
func (s *State) Reset() {
	*s = State{}
	copy(s.Memory[FontAddress(0):], Font[:])
	s.PC = ProgramStart
}

// LoadProgram copies the program image into memory starting at the program
// start address. Memory is not modified if the program does not fit.
func (s *State) LoadProgram(program []byte) error {
	if len(program) > MaxProgramLen {
		return fmt.Errorf("%w: %d bytes, maximum is %d", ErrProgramTooLarge, len(program), MaxProgramLen)
	}
	copy(s.Memory[ProgramStart:], program)
	return nil
}

// Push pushes a return address onto the call stack.
func (s *State) Push(address uint16) error {
	if int(s.SP) >= StackSize {
		return ErrStackOverflow
	}
	s.Stack[s.SP] = address
	s.SP++
	return nil
}

// Pop removes and returns the most recently pushed return address.
func (s *State) Pop() (uint16, error) {
	if s.SP == 0 {
		return 0, ErrStackUnderflow
	}
	s.SP--
	return s.Stack[s.SP], nil
}

// Read returns the memory byte at the given address.
func (s *State) Read(address uint16) (byte, error) {
	if address > MaxAddress {
		return 0, fmt.Errorf("%w: read at $%04X", ErrMemoryOutOfBounds, address)
	}
	return s.Memory[address], nil
}

// ReadSlice returns a view of length bytes of memory starting at address.
func (s *State) ReadSlice(address uint16, length int) ([]byte, error) {
	if err := checkRange(address, length); err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	start := int(address)
	return s.Memory[start : start+length], nil
}

// Write stores a byte at the given address.
func (s *State) Write(address uint16, value byte) error {
	if address > MaxAddress {
		return fmt.Errorf("%w: write at $%04X", ErrMemoryOutOfBounds, address)
	}
	s.Memory[address] = value
	return nil
}

// WriteSlice copies data into memory starting at address. The whole range is
// validated before the first byte is written.
func (s *State) WriteSlice(address uint16, data []byte) error {
	if err := checkRange(address, len(data)); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	copy(s.Memory[address:], data)
	return nil
}

func checkRange(address uint16, length int) error {
	if length < 0 || int(address)+length > MemorySize {
		return fmt.Errorf("%w: $%04X+%d", ErrMemoryOutOfBounds, address, length)
	}
	return nil
}

// TickTimers decrements the delay and sound timers if they are non zero.
// It is expected to be called by the host at 60 Hz.
func (s *State) TickTimers() {
	if s.DelayTimer > 0 {
		s.DelayTimer--
	}
	if s.SoundTimer > 0 {
		s.SoundTimer--
	}
}

// SoundActive returns whether the sound timer requests a tone.
func (s *State) SoundActive() bool {
	return s.SoundTimer > 0
}

// Pixel returns whether the pixel at the given screen position is set.
// Coordinates outside the screen report an unset pixel.
func (s *State) Pixel(x, y int) bool {
	if x < 0 || y < 0 || x >= DisplayWidth || y >= DisplayHeight {
		return false
	}
	return s.Display[x+y*DisplayWidth] != 0
}

// ClearDirty marks the current frame as consumed by the renderer.
func (s *State) ClearDirty() {
	s.DisplayDirty = false
}

// SetKey sets the pressed state of a key. Keys outside of 0x0-0xF are ignored.
func (s *State) SetKey(key byte, pressed bool) {
	if int(key) >= KeyCount {
		return
	}
	if pressed {
		s.Keys[key] = 1
	} else {
		s.Keys[key] = 0
	}
}

// ReleaseKeys marks all keys as released.
func (s *State) ReleaseKeys() {
	s.Keys = [KeyCount]byte{}
}

// KeyPressed returns whether the given key is held down.
func (s *State) KeyPressed(key byte) bool {
	return int(key) < KeyCount && s.Keys[key] != 0
}

// KeyNewlyPressed returns whether the key is held down but was released at
// the end of the previous instruction.
func (s *State) KeyNewlyPressed(key byte) bool {
	return s.KeyPressed(key) && s.LastKeys[key] == 0
}

// LatchKeys remembers the current key state for KeyNewlyPressed.
func (s *State) LatchKeys() {
	s.LastKeys = s.Keys
}
