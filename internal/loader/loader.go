// Package loader handles ROM file loading operations.
package loader

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/retroenv/retrochip8/internal/machine"
)

// ErrEmptyProgram is returned for ROM files without any content.
var ErrEmptyProgram = errors.New("empty program")

// Loader handles loading ROM files from disk.
type Loader struct{}

// New creates a new ROM loader.
func New() *Loader {
	return &Loader{}
}

// Load reads a raw CHIP-8 ROM. The file has no header, byte N of the file is
// loaded to memory address 0x200+N.
func (l *Loader) Load(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	return l.Read(file)
}

// Read reads a raw CHIP-8 ROM from the reader.
func (l *Loader) Read(reader io.Reader) ([]byte, error) {
	// read one byte more than fits to detect oversized images without
	// reading arbitrarily large files into memory
	data, err := io.ReadAll(io.LimitReader(reader, machine.MaxProgramLen+1))
	if err != nil {
		return nil, fmt.Errorf("reading program: %w", err)
	}

	switch {
	case len(data) == 0:
		return nil, ErrEmptyProgram
	case len(data) > machine.MaxProgramLen:
		return nil, fmt.Errorf("%w: more than %d bytes", machine.ErrProgramTooLarge, machine.MaxProgramLen)
	}
	return data, nil
}
