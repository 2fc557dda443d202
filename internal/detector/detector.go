// Package detector handles system detection of ROM files.
package detector

import (
	"path/filepath"
	"strings"

	"github.com/retroenv/retrogolib/arch"
	"github.com/retroenv/retrogolib/log"
)

// Detector detects the system a ROM file was made for from its extension.
type Detector struct {
	logger *log.Logger
}

// New creates a new system detector.
func New(logger *log.Logger) *Detector {
	return &Detector{
		logger: logger,
	}
}

// Detect returns the system for the file, an empty system if the extension
// is unknown.
func (d *Detector) Detect(filename string) arch.System {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".ch8", ".c8", ".rom":
		return arch.CHIP8System
	case ".nes":
		return arch.NES
	default:
		return ""
	}
}

// Check logs a warning if the file does not look like a CHIP-8 ROM. The file
// is run as CHIP-8 program regardless, ROMs are distributed with many
// different extensions.
func (d *Detector) Check(filename string) bool {
	system := d.Detect(filename)
	switch system {
	case arch.CHIP8System:
		return true
	case "":
		d.logger.Debug("Unknown ROM file extension, assuming CHIP-8",
			log.String("file", filename))
		return true
	default:
		d.logger.Warn("ROM file extension indicates a different system",
			log.String("file", filename),
			log.Stringer("system", system))
		return false
	}
}
