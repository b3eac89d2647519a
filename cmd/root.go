// Package cmd wires up the CLI flags and dispatches to the core modes.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"picoctl/config"
	"picoctl/internal/core"
	"picoctl/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X picoctl/cmd.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// stdout and stderr are swapped out by tests.
var (
	stdout io.Writer = os.Stdout //nolint:gochecknoglobals
	stderr io.Writer = os.Stderr //nolint:gochecknoglobals
)

type runOptions struct {
	dryRun      bool
	showVersion bool
	showHelp    bool
}

// Execute parses args and runs the device endpoint or the console
// client.
func Execute(ctx context.Context, args []string) error {
	cfg, opts, fs, err := parseArgs(args)
	if err != nil {
		return err
	}

	if opts.showHelp || len(args) == 0 {
		printUsage(fs)
		return nil
	}
	if opts.showVersion {
		fmt.Fprintf(stdout, "picoctl %s\n", version)
		return nil
	}

	// ── validate ─────────────────────────────────────────────────
	if err := cfg.Validate(); err != nil {
		return err
	}

	// ── build components ─────────────────────────────────────────
	logger := util.NewLogger(cfg.Verbose)
	if cfg.Log.File != "" {
		logger.AttachFile(util.LogFile{
			Path:       cfg.Log.File,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
			Compress:   cfg.Log.Compress,
		})
	}
	defer logger.Close()

	mode, err := core.Build(cfg, logger)
	if err != nil {
		return err
	}

	if opts.dryRun {
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("dry run: %w", err)
		}
		fmt.Fprintf(stderr, "picoctl %s: configuration OK (%T)\n", version, mode)
		stdout.Write(out) //nolint:errcheck
		return nil
	}

	return mode.Run(ctx)
}

// parseArgs assembles the configuration.  Precedence, highest first:
// flags, PICOCTL_* environment, the --config file, defaults.
func parseArgs(args []string) (*config.Config, runOptions, *flag.FlagSet, error) {
	cfg := config.Default()
	var opts runOptions
	fs := flag.NewFlagSet("picoctl", flag.ContinueOnError)
	fs.SetOutput(stderr)

	// ── mode ─────────────────────────────────────────────────────
	fs.BoolVarP(&cfg.Listen, "listen", "l", false, "Run the device endpoint")
	fs.StringVarP(&cfg.ConfigPath, "config", "c", "", "YAML configuration file")

	// ── network ──────────────────────────────────────────────────
	fs.IntVarP(&cfg.Network.ListenPort, "port", "p", cfg.Network.ListenPort, "Listen port (with -l)")
	fs.StringVar(&cfg.Network.BindAddress, "bind", "", "Bind address (with -l, default all)")
	fs.StringVarP(&cfg.Network.Interface, "interface", "i", "", "Interface to take the address from")
	fs.StringVar(&cfg.Network.StaticIP, "ip", "", "Use this IPv4 address instead of discovery")
	fs.DurationVar(&cfg.Network.BringupTimeout, "bringup-timeout", cfg.Network.BringupTimeout, "Wait this long for an address")

	var timeoutSec int
	fs.IntVarP(&timeoutSec, "timeout", "w", 0, "Console connect timeout in seconds")

	// ── hardware ─────────────────────────────────────────────────
	fs.IntVar(&cfg.Pins.LED, "led-pin", cfg.Pins.LED, "LED output pin")
	fs.IntVar(&cfg.Pins.Buzzer, "buzzer-pin", cfg.Pins.Buzzer, "Buzzer output pin")
	fs.DurationVar(&cfg.Timing.Beep, "beep", cfg.Timing.Beep, "Buzzer pulse length")
	fs.DurationVar(&cfg.Timing.BlinkHold, "blink-hold", cfg.Timing.BlinkHold, "LED on and off time while blinking")
	fs.DurationVar(&cfg.Timing.Idle, "idle", cfg.Timing.Idle, "Loop wait while not blinking")
	fs.StringVar(&cfg.Display.Kind, "display", cfg.Display.Kind, "Status display: oled, log or none")

	// ── session ──────────────────────────────────────────────────
	fs.IntVar(&cfg.Session.BufferSize, "buffer-size", cfg.Session.BufferSize, "Command line buffer in bytes")
	fs.StringVar(&cfg.Session.SecondConnect, "second-connect", cfg.Session.SecondConnect, "Second connection policy: replace or reject")

	// ── output ───────────────────────────────────────────────────
	var verbosity int
	fs.CountVarP(&verbosity, "verbose", "v", "Increase verbosity (repeatable)")
	fs.StringVar(&cfg.Log.File, "log-file", "", "Also log to this file (rotated)")

	fs.BoolVar(&opts.dryRun, "dry-run", false, "Validate configuration and exit")
	fs.BoolVar(&opts.showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&opts.showHelp, "help", "h", false, "Show this help")

	fs.Usage = func() { printUsage(fs) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return nil, opts, fs, err
	}

	// Remember explicit flags, lay the file and environment over the
	// defaults, then put the flags back on top.
	explicit := map[string]string{}
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = f.Value.String() })

	if cfg.ConfigPath != "" {
		if err := config.LoadFile(cfg.ConfigPath, cfg); err != nil {
			return nil, opts, fs, err
		}
	}
	config.LoadFromEnv(cfg)
	for name, value := range explicit {
		if err := fs.Set(name, value); err != nil {
			return nil, opts, fs, fmt.Errorf("--%s: %w", name, err)
		}
	}
	// -v counts up from normal verbosity.
	if verbosity > 0 {
		cfg.Verbose = int(util.LogNormal) + verbosity
	}

	if timeoutSec > 0 {
		cfg.Timeout = time.Duration(timeoutSec) * time.Second
	}

	// ── positional arguments ─────────────────────────────────────
	if err := parsePositional(cfg, fs.Args()); err != nil {
		return nil, opts, fs, err
	}
	return cfg, opts, fs, nil
}

// ── helpers ──────────────────────────────────────────────────────────

func parsePositional(cfg *config.Config, remaining []string) error {
	if cfg.Listen {
		if len(remaining) > 0 {
			return fmt.Errorf("unexpected arguments with -l: %v", remaining)
		}
		return nil
	}

	// Console mode: host [port]
	switch len(remaining) {
	case 0:
		return nil // Validate reports the missing host
	case 1, 2:
		cfg.Host = remaining[0]
		if len(remaining) == 2 {
			port, err := config.ParsePort(remaining[1])
			if err != nil {
				return fmt.Errorf("port: %w", err)
			}
			cfg.Port = port
		}
		return nil
	default:
		return fmt.Errorf("too many arguments (use --help for usage)")
	}
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(stderr, `picoctl – telnet command endpoint for a small board v%s

Usage:
  picoctl -l [options]              Run the device endpoint
  picoctl [options] <host> [port]   Open a console to a device

Options:
`, version)
	fs.SetOutput(stderr)
	fs.PrintDefaults()
	fmt.Fprintf(stderr, `
Commands understood by the device:
  help, ip, beep, piscar, exit

Examples:
  picoctl -l                        Listen on port 23
  picoctl -l -p 2323 --ip 10.0.0.7  Listen on 2323 with a fixed address
  picoctl 192.168.1.42              Connect to a device
  echo ip | picoctl 192.168.1.42    Query the address non-interactively
`)
}
