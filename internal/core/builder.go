package core

import (
	"os"

	"golang.org/x/term"

	"picoctl/config"
	"picoctl/internal/blink"
	"picoctl/internal/command"
	"picoctl/internal/display"
	"picoctl/internal/hw"
	"picoctl/internal/metrics"
	"picoctl/internal/netid"
	"picoctl/internal/transport"
	"picoctl/util"
)

// Build constructs the appropriate Mode from the given configuration.
func Build(cfg *config.Config, logger *util.Logger) (Mode, error) {
	if cfg.Listen {
		return buildDevice(cfg, logger, nil)
	}
	return buildConsole(cfg, logger), nil
}

// ── mode builders ────────────────────────────────────────────────────

// buildDevice wires the device.  pins drives the physical outputs; nil
// runs with level tracking only.
func buildDevice(cfg *config.Config, logger *util.Logger, pins hw.Pins) (*DeviceMode, error) {
	disp, err := display.New(cfg.Display.Kind, logger)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	outputs := hw.NewBank(pins, map[hw.Output]int{
		hw.LED:    cfg.Pins.LED,
		hw.Buzzer: cfg.Pins.Buzzer,
	}, logger)
	sched := blink.New(outputs, cfg.Timing.BlinkHold, cfg.Timing.Idle, logger, m)

	return &DeviceMode{
		Address:    cfg.ListenAddr(),
		BufferSize: cfg.Session.BufferSize,
		NetID: netid.Options{
			Interface: cfg.Network.Interface,
			StaticIP:  cfg.Network.StaticIP,
			Timeout:   cfg.Network.BringupTimeout,
			Logger:    logger,
		},
		Outputs: outputs,
		Blink:   sched,
		Display: disp,
		Interpreter: &command.Interpreter{
			Blink:        sched,
			Actuator:     outputs,
			BeepDuration: cfg.Timing.Beep,
			Logger:       logger.Named("command"),
			Metrics:      m,
		},
		SecondConnect: cfg.Session.SecondConnect,
		Logger:        logger.Named("device"),
		Metrics:       m,
	}, nil
}

func buildConsole(cfg *config.Config, logger *util.Logger) *ConsoleMode {
	return &ConsoleMode{
		Dialer:  &transport.TCPDialer{Timeout: cfg.Timeout},
		Address: util.FormatAddr(cfg.Host, cfg.Port),
		Logger:  logger.Named("console"),
		Banner:  term.IsTerminal(int(os.Stdin.Fd())),
	}
}
