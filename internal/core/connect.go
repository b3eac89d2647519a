package core

import (
	"context"
	"fmt"
	"io"
	"os"

	"picoctl/internal/transport"
	"picoctl/util"
)

// ConsoleMode dials a device and relays the local terminal to it.
type ConsoleMode struct {
	Dialer  transport.Dialer
	Address string
	Logger  *util.Logger

	// Banner prints a short usage line on connect; set when stdin is a
	// terminal.
	Banner bool

	// Stdin/Stdout/Stderr default to the process streams when nil.
	// Override in tests for deterministic I/O.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func (m *ConsoleMode) stdin() io.Reader {
	if m.Stdin != nil {
		return m.Stdin
	}
	return os.Stdin
}

func (m *ConsoleMode) stdout() io.Writer {
	if m.Stdout != nil {
		return m.Stdout
	}
	return os.Stdout
}

func (m *ConsoleMode) stderr() io.Writer {
	if m.Stderr != nil {
		return m.Stderr
	}
	return os.Stderr
}

// Run dials the device and relays until either side hangs up.  The
// transport is closed when Run returns.
func (m *ConsoleMode) Run(ctx context.Context) error {
	defer m.Dialer.Close()

	m.Logger.Verbose("connecting to %s", m.Address)

	conn, err := m.Dialer.Dial(ctx, "tcp", m.Address)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", m.Address, err)
	}

	m.Logger.Verbose("connected to %s", conn.RemoteAddr())
	if m.Banner {
		fmt.Fprintf(m.stderr(), "Connected to %s. Type 'help' for commands, 'exit' to leave.\n", m.Address)
	}

	stats, err := util.Relay(ctx, conn, m.stdin(), m.stdout())
	m.Logger.Verbose("connection closed (sent %d, received %d bytes)", stats.Sent, stats.Received)
	return err
}
