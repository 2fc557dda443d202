// Package fileprocessor handles ROM loading and dispatching to the listing
// or emulation workflow.
package fileprocessor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/retroenv/retrochip8/internal/arch/chip8"
	"github.com/retroenv/retrochip8/internal/config"
	"github.com/retroenv/retrochip8/internal/detector"
	"github.com/retroenv/retrochip8/internal/loader"
	"github.com/retroenv/retrochip8/internal/options"
	"github.com/retroenv/retrochip8/internal/runner"
	"github.com/retroenv/retrochip8/internal/terminal"
	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/retroenv/retrogolib/log"
)

// ProcessFile handles the complete file processing workflow
func ProcessFile(ctx context.Context, logger *log.Logger, opts options.Program, emuOpts options.Emulator) error {
	detector.New(logger).Check(opts.Input)

	program, err := loader.New().Load(opts.Input)
	if err != nil {
		return fmt.Errorf("loading ROM: %w", err)
	}
	logger.Debug("Loaded ROM", log.String("file", opts.Input), log.Int("size", len(program)))

	if opts.Disasm {
		if err := chip8.Listing(os.Stdout, program, chip8.ProgramStart); err != nil {
			return fmt.Errorf("writing listing: %w", err)
		}
		return nil
	}

	if opts.Headless {
		return runHeadless(ctx, logger, opts, emuOpts, program, os.Stdout)
	}
	return runTerminal(ctx, logger, opts, emuOpts, program)
}

func runHeadless(ctx context.Context, logger *log.Logger, opts options.Program, emuOpts options.Emulator,
	program []byte, out io.Writer) error {

	screen := terminal.NewHeadless()
	r := runner.New(logger, config.CreateInterpreter(logger, opts, emuOpts), emuOpts, screen, terminal.NullKeypad{})
	if err := r.Load(program); err != nil {
		return err
	}

	stats, runErr := r.Run(ctx)
	logStats(logger, stats)

	if !opts.Quiet {
		if err := screen.Dump(out); err != nil {
			return err
		}
	}
	return ignoreStopReason(runErr)
}

func runTerminal(ctx context.Context, logger *log.Logger, opts options.Program, emuOpts options.Emulator,
	program []byte) error {

	screen, err := terminal.NewScreen(os.Stdout)
	if err != nil {
		return fmt.Errorf("creating terminal screen: %w", err)
	}
	defer func() { _ = screen.Close() }()

	keypad, err := terminal.NewKeypad(os.Stdin, emuOpts.KeyHold)
	if err != nil {
		return fmt.Errorf("creating terminal keypad: %w", err)
	}
	defer func() { _ = keypad.Close() }()

	r := runner.New(logger, config.CreateInterpreter(logger, opts, emuOpts), emuOpts, screen, keypad)
	if err := r.Load(program); err != nil {
		return err
	}

	stats, runErr := r.Run(ctx)
	_ = keypad.Close()
	_ = screen.Close()
	logStats(logger, stats)
	return ignoreStopReason(runErr)
}

// ignoreStopReason treats reaching a breakpoint as a regular end of the run.
func ignoreStopReason(err error) error {
	if errors.Is(err, runner.ErrBreakpoint) {
		return nil
	}
	return err
}

func logStats(logger *log.Logger, stats runner.Stats) {
	logger.Info("Emulation stopped",
		log.Int("cycles", int(stats.Cycles)),
		log.Int("frames", int(stats.Frames)),
		log.Int("faults", int(stats.Faults)),
		log.Int("resets", int(stats.Resets)))
}

// PrintBanner prints application version information
func PrintBanner(logger *log.Logger, opts options.Program, version, commit, date string) {
	if opts.Quiet {
		return
	}
	logger.Info("retrochip8", log.String("version", buildinfo.Version(version, commit, date)))
}
