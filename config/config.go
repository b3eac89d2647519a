// Package config defines the runtime configuration for picoctl and the
// layers it is assembled from: defaults, a YAML file, environment
// variables and CLI flags.
package config

import (
	"fmt"
	"net/netip"
	"strconv"
	"time"

	"picoctl/internal/errors"
)

// Config holds every tuneable for the device and the console client.
type Config struct {
	// ── Mode (CLI only) ──────────────────────────────────────────────
	ConfigPath string        `yaml:"-"`
	Listen     bool          `yaml:"-"` // -l: run the device endpoint
	Host       string        `yaml:"-"` // console: device address
	Port       int           `yaml:"-"` // console: device port
	Timeout    time.Duration `yaml:"-"` // console: dial timeout

	Network NetworkConfig `yaml:"network"`
	Pins    PinConfig     `yaml:"pins"`
	Timing  TimingConfig  `yaml:"timing"`
	Session SessionConfig `yaml:"session"`
	Display DisplayConfig `yaml:"display"`
	Log     LogConfig     `yaml:"log"`

	Verbose int `yaml:"verbose"`
}

// NetworkConfig covers bring-up and the listening socket.
type NetworkConfig struct {
	BindAddress    string        `yaml:"bind_address"`
	ListenPort     int           `yaml:"listen_port"`
	Interface      string        `yaml:"interface"` // empty: first up interface
	StaticIP       string        `yaml:"static_ip"` // skips interface discovery
	BringupTimeout time.Duration `yaml:"bringup_timeout"`
}

// PinConfig maps logical outputs to GPIO numbers.
type PinConfig struct {
	LED    int `yaml:"led"`
	Buzzer int `yaml:"buzzer"`
}

// TimingConfig holds the actuation cadence.
type TimingConfig struct {
	Beep      time.Duration `yaml:"beep"`
	BlinkHold time.Duration `yaml:"blink_hold"`
	Idle      time.Duration `yaml:"idle"`
}

// SessionConfig governs remote sessions.
type SessionConfig struct {
	BufferSize    int    `yaml:"buffer_size"`
	SecondConnect string `yaml:"second_connect"`
}

// DisplayConfig selects the status display backend.
type DisplayConfig struct {
	Kind string `yaml:"kind"`
}

// LogConfig configures the optional rotating log file.
type LogConfig struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// ListenAddr returns the address the device listens on.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Network.BindAddress, c.Network.ListenPort)
}

// ParsePort accepts a decimal port number in 1-65535.
func ParsePort(spec string) (int, error) {
	port, err := strconv.Atoi(spec)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q", spec)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("port %d out of range 1-65535", port)
	}
	return port, nil
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if !c.Listen {
		return c.validateConsole()
	}
	return c.validateDevice()
}

func (c *Config) validateConsole() error {
	if c.Host == "" {
		return &errors.ConfigError{
			Field:   "host",
			Message: "device address is required",
			Hint:    "run `picoctl <host> [port]`, or -l to start the device",
		}
	}
	if c.Port < 1 || c.Port > 65535 {
		return &errors.ConfigError{Field: "port", Value: c.Port, Message: "out of range 1-65535"}
	}
	return nil
}

func (c *Config) validateDevice() error {
	n := c.Network
	if n.ListenPort < 1 || n.ListenPort > 65535 {
		return &errors.ConfigError{
			Field:   "listen-port",
			Value:   n.ListenPort,
			Message: "out of range 1-65535",
			Hint:    "telnet clients expect port 23",
		}
	}
	if n.StaticIP != "" {
		addr, err := netip.ParseAddr(n.StaticIP)
		if err != nil || !addr.Is4() {
			return &errors.ConfigError{
				Field:   "ip",
				Value:   n.StaticIP,
				Message: "not an IPv4 address",
				Hint:    "use dotted-quad form, e.g. 192.168.1.42",
			}
		}
	}
	if n.StaticIP == "" && n.BringupTimeout <= 0 {
		return &errors.ConfigError{Field: "bringup-timeout", Value: n.BringupTimeout, Message: "must be positive"}
	}

	if c.Pins.LED < 0 || c.Pins.Buzzer < 0 {
		return &errors.ConfigError{Field: "led-pin", Message: "pin numbers must not be negative"}
	}
	if c.Pins.LED == c.Pins.Buzzer {
		return &errors.ConfigError{
			Field:   "buzzer-pin",
			Value:   c.Pins.Buzzer,
			Message: "LED and buzzer share a pin",
			Hint:    "defaults are LED 12 and buzzer 10",
		}
	}

	for _, d := range []struct {
		field string
		value time.Duration
	}{
		{"beep", c.Timing.Beep},
		{"blink-hold", c.Timing.BlinkHold},
		{"idle", c.Timing.Idle},
	} {
		if d.value <= 0 {
			return &errors.ConfigError{Field: d.field, Value: d.value, Message: "must be positive"}
		}
	}

	if c.Session.BufferSize < 1 {
		return &errors.ConfigError{Field: "buffer-size", Value: c.Session.BufferSize, Message: "must be at least 1"}
	}
	switch c.Session.SecondConnect {
	case SecondConnectReplace, SecondConnectReject:
	default:
		return &errors.ConfigError{
			Field:   "second-connect",
			Value:   c.Session.SecondConnect,
			Message: "unknown policy",
			Hint:    "use replace or reject",
		}
	}
	switch c.Display.Kind {
	case DisplayOLED, DisplayLog, DisplayNone:
	default:
		return &errors.ConfigError{
			Field:   "display",
			Value:   c.Display.Kind,
			Message: "unknown display",
			Hint:    "use oled, log or none",
		}
	}
	return nil
}
