package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags, the YAML file and environment variable loading.

const (
	// DefaultListenPort is the telnet port the device answers on.
	DefaultListenPort = 23

	// DefaultLEDPin and DefaultBuzzerPin are the board's output pins.
	DefaultLEDPin    = 12
	DefaultBuzzerPin = 10

	// DefaultBeepDuration is how long the buzzer sounds for "beep".
	DefaultBeepDuration = 200 * time.Millisecond

	// DefaultBlinkHold is the on time and the off time of one blink
	// cycle.
	DefaultBlinkHold = 500 * time.Millisecond

	// DefaultIdleInterval is how long the main loop waits per tick while
	// blinking is off.
	DefaultIdleInterval = 1000 * time.Millisecond

	// DefaultBufferSize bounds a single command line.
	DefaultBufferSize = 128

	// DefaultBringupTimeout bounds the wait for an IPv4 address.
	DefaultBringupTimeout = 10 * time.Second

	// DefaultDialTimeout is the console client's connect timeout.
	DefaultDialTimeout = 10 * time.Second

	// DefaultLogMaxSizeMB and friends configure log rotation.
	DefaultLogMaxSizeMB  = 5
	DefaultLogMaxBackups = 3
	DefaultLogMaxAgeDays = 28
)

// Second-connect policies.
const (
	SecondConnectReplace = "replace"
	SecondConnectReject  = "reject"
)

// Display kinds.
const (
	DisplayOLED = "oled"
	DisplayLog  = "log"
	DisplayNone = "none"
)

// Default returns a Config populated with every default.
func Default() *Config {
	return &Config{
		Port:    DefaultListenPort,
		Timeout: DefaultDialTimeout,
		Network: NetworkConfig{
			ListenPort:     DefaultListenPort,
			BringupTimeout: DefaultBringupTimeout,
		},
		Pins: PinConfig{
			LED:    DefaultLEDPin,
			Buzzer: DefaultBuzzerPin,
		},
		Timing: TimingConfig{
			Beep:      DefaultBeepDuration,
			BlinkHold: DefaultBlinkHold,
			Idle:      DefaultIdleInterval,
		},
		Session: SessionConfig{
			BufferSize:    DefaultBufferSize,
			SecondConnect: SecondConnectReplace,
		},
		Display: DisplayConfig{Kind: DisplayOLED},
		Log: LogConfig{
			MaxSizeMB:  DefaultLogMaxSizeMB,
			MaxBackups: DefaultLogMaxBackups,
			MaxAgeDays: DefaultLogMaxAgeDays,
		},
		Verbose: 1,
	}
}
