// Package cli handles command line interface logic
package cli

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/retroenv/retrochip8/internal/options"
)

// ParseFlags parses command line flags and returns program and emulator options
func ParseFlags() (options.Program, options.Emulator, error) {
	return parseArgs(os.Args[0], os.Args[1:])
}

func parseArgs(name string, arguments []string) (options.Program, options.Emulator, error) {
	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	var opts options.Program
	emuOpts := options.NewEmulator()
	raw := readOptionFlags(flags, &opts, &emuOpts)

	err := flags.Parse(arguments)
	args := flags.Args()
	if err != nil || len(args) == 0 {
		return opts, emuOpts, &UsageError{flags: flags}
	}

	if err := validateArgs(flags, args); err != nil {
		return opts, emuOpts, err
	}
	opts.Input = args[0]

	if err := applyRawOptions(raw, &emuOpts); err != nil {
		return opts, emuOpts, err
	}
	if emuOpts.Speed < 0 || emuOpts.Speed > options.MaxSpeed {
		return opts, emuOpts, fmt.Errorf("invalid speed %d, must be between 0 and %d", emuOpts.Speed, options.MaxSpeed)
	}

	return opts, emuOpts, nil
}

// UsageError represents an error that should show usage information
type UsageError struct {
	flags *flag.FlagSet
	msg   string
}

func (e *UsageError) Error() string {
	return e.msg
}

func (e *UsageError) ShowUsage() {
	fmt.Printf("usage: retrochip8 [options] <ROM file>\n\n")
	e.flags.SetOutput(os.Stdout)
	e.flags.PrintDefaults()
	fmt.Println()
}

// rawOptions contains flag values that need to be parsed after flag parsing.
type rawOptions struct {
	faultPolicy string
	breakpoints string
	seed        string
}

// validateArgs checks if arguments are in correct order
func validateArgs(flags *flag.FlagSet, args []string) error {
	for i, arg := range args {
		if i > 0 && arg[0] == '-' {
			return &UsageError{
				flags: flags,
				msg:   fmt.Sprintf("Potential argument %s found after ROM file, please pass the ROM file as last argument", arg),
			}
		}
	}
	return nil
}

// applyRawOptions converts the textual flag values into emulator options.
func applyRawOptions(raw *rawOptions, emuOpts *options.Emulator) error {
	policy, err := options.ParseFaultPolicy(raw.faultPolicy)
	if err != nil {
		return err
	}
	emuOpts.FaultPolicy = policy

	breakpoints, err := parseAddresses(raw.breakpoints)
	if err != nil {
		return err
	}
	emuOpts.Breakpoints = breakpoints

	if raw.seed != "" {
		seed, err := strconv.ParseUint(raw.seed, 0, 64)
		if err != nil {
			return fmt.Errorf("invalid seed %q: %w", raw.seed, err)
		}
		emuOpts.Seed = seed
		emuOpts.Seeded = true
	}
	return nil
}

// parseAddresses parses a comma separated list of hexadecimal addresses,
// with optional $ or 0x prefix.
func parseAddresses(list string) ([]uint16, error) {
	if list == "" {
		return nil, nil
	}

	var addresses []uint16
	for _, field := range strings.Split(list, ",") {
		field = strings.TrimSpace(field)
		field = strings.TrimPrefix(field, "$")
		field = strings.TrimPrefix(strings.ToLower(field), "0x")
		address, err := strconv.ParseUint(field, 16, 16)
		if err != nil || address > 0xFFF {
			return nil, fmt.Errorf("invalid breakpoint address %q", field)
		}
		addresses = append(addresses, uint16(address))
	}
	return addresses, nil
}

func readOptionFlags(flags *flag.FlagSet, opts *options.Program, emuOpts *options.Emulator) *rawOptions {
	raw := &rawOptions{}
	flags.BoolVar(&opts.Disasm, "disasm", false, "print a disassembly listing of the ROM and exit")
	flags.BoolVar(&opts.Headless, "headless", false, "run without terminal display and keyboard, print the last frame on exit")
	flags.BoolVar(&opts.Debug, "debug", false, "enable debugging options for extended logging and instruction tracing")
	flags.BoolVar(&opts.Quiet, "q", false, "perform operations quietly")

	flags.IntVar(&emuOpts.Speed, "speed", options.DefaultSpeed, "instructions per second, 0 runs unthrottled")
	flags.Uint64Var(&emuOpts.MaxCycles, "cycles", 0, "stop after executing this many instructions, 0 for no limit")
	flags.DurationVar(&emuOpts.KeyHold, "keyhold", emuOpts.KeyHold, "duration a key press is held down in the terminal")
	flags.StringVar(&raw.faultPolicy, "fault", string(options.FaultHalt), "reaction to instruction faults (halt/skip/reset)")
	flags.StringVar(&raw.breakpoints, "break", "", "comma separated list of hex addresses to stop at, for example 200,2a4")
	flags.StringVar(&raw.seed, "seed", "", "seed for the random number generator to make runs reproducible")
	return raw
}
