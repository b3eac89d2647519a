// Package display renders the device's status lines.  The OLED
// backend rasterises text into an SSD1306-shaped framebuffer; Log and
// Nop serve headless runs.
package display

import (
	"fmt"

	"picoctl/util"
)

// Display replaces the visible status with lines.
type Display interface {
	Show(lines []string) error
}

// Log writes status lines to the logger.
type Log struct {
	Logger *util.Logger
}

// Show logs each line at info level.
func (d *Log) Show(lines []string) error {
	for _, l := range lines {
		d.Logger.Info("%s", l)
	}
	return nil
}

// Nop discards status updates.
type Nop struct{}

// Show does nothing.
func (Nop) Show([]string) error { return nil }

// New returns the backend named kind ("oled", "log" or "none").  The
// OLED backend dumps its frame to the logger at debug level.
func New(kind string, logger *util.Logger) (Display, error) {
	logger = logger.Named("display")
	switch kind {
	case "oled":
		return NewOLED(&debugWriter{logger: logger}), nil
	case "log":
		return &Log{Logger: logger}, nil
	case "none", "":
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("unknown display %q", kind)
	}
}

// debugWriter forwards each flushed frame to the logger.
type debugWriter struct {
	logger *util.Logger
}

func (w *debugWriter) Write(p []byte) (int, error) {
	w.logger.Debug("frame:\n%s", p)
	return len(p), nil
}
