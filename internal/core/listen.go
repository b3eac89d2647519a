package core

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"

	"picoctl/internal/blink"
	"picoctl/internal/command"
	"picoctl/internal/display"
	"picoctl/internal/hw"
	"picoctl/internal/metrics"
	"picoctl/internal/netid"
	"picoctl/internal/transport"
	"picoctl/util"
)

// DeviceMode is the device endpoint: it brings the network up, shows
// its address, listens for one command session at a time and runs the
// blink loop until cancelled.
type DeviceMode struct {
	Address    string // "bind:port"
	BufferSize int
	NetID      netid.Options

	Outputs       *hw.Bank
	Blink         *blink.Scheduler
	Display       display.Display
	Interpreter   *command.Interpreter
	SecondConnect string

	Logger  *util.Logger
	Metrics *metrics.Collector

	// Stdout receives the listening banner; defaults to os.Stdout.
	Stdout io.Writer
}

func (m *DeviceMode) stdout() io.Writer {
	if m.Stdout != nil {
		return m.Stdout
	}
	return os.Stdout
}

// Run performs bring-up and serves until ctx is done.  Bring-up and
// listen failures match errors.ErrTransportUnavailable.
func (m *DeviceMode) Run(ctx context.Context) error {
	defer func() {
		if err := m.Outputs.AllLow(); err != nil {
			m.Logger.Warn("outputs low: %v", err)
		}
		m.Logger.Verbose("metrics:\n%s", m.Metrics.JSON())
	}()

	id, err := netid.Resolve(ctx, m.NetID)
	if err != nil {
		return err
	}
	m.Interpreter.Identity = id

	if err := m.Display.Show([]string{"IP Address:", id.String()}); err != nil {
		m.Logger.Warn("display: %v", err)
	}

	ln := transport.NewTCPListener(m.Address, m.BufferSize, m.Logger, m.Metrics)
	if err := ln.Listen(ctx); err != nil {
		return err
	}
	fmt.Fprintf(m.stdout(), "%s%d\n", command.Prompt, ln.Addr().(*net.TCPAddr).Port)

	loop := &Loop{
		Listener:      ln,
		Interpreter:   m.Interpreter,
		Blink:         m.Blink,
		Actuator:      m.Outputs,
		SecondConnect: m.SecondConnect,
		Logger:        m.Logger.Named("loop"),
		Metrics:       m.Metrics,
	}
	return loop.Run(ctx)
}
