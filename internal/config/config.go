// Package config handles application configuration and setup
package config

import (
	"github.com/retroenv/retrochip8/internal/interpreter"
	"github.com/retroenv/retrochip8/internal/options"
	"github.com/retroenv/retrogolib/log"
)

// CreateLogger creates a logger with appropriate settings
func CreateLogger(debug, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()
	if debug {
		cfg.Level = log.DebugLevel
	} else if quiet {
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}

// CreateInterpreter creates an interpreter configured by the emulator options.
// Instruction tracing is enabled in debug mode.
func CreateInterpreter(logger *log.Logger, opts options.Program, emuOpts options.Emulator) *interpreter.Interpreter {
	var interpreterOptions []interpreter.Option
	if emuOpts.Seeded {
		interpreterOptions = append(interpreterOptions, interpreter.WithSeed(emuOpts.Seed))
	}
	if opts.Debug {
		interpreterOptions = append(interpreterOptions, interpreter.WithTrace(logger))
	}
	return interpreter.New(interpreterOptions...)
}
