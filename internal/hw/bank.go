package hw

import (
	"context"
	"sync"
	"time"

	"picoctl/internal/errors"
	"picoctl/util"
)

// Bank is an Actuator over a fixed mapping of logical outputs to pin
// numbers.  It remembers the last level written to each output.
type Bank struct {
	pins    Pins
	mapping map[Output]int
	logger  *util.Logger

	mu     sync.Mutex
	levels map[Output]bool
}

// NewBank maps outputs to pin numbers on pins.  A nil pins records
// levels without driving anything, which is how the device runs off
// target.
func NewBank(pins Pins, mapping map[Output]int, logger *util.Logger) *Bank {
	m := make(map[Output]int, len(mapping))
	for o, p := range mapping {
		m[o] = p
	}
	return &Bank{
		pins:    pins,
		mapping: m,
		logger:  logger.Named("hw"),
		levels:  make(map[Output]bool, len(m)),
	}
}

// Set drives output to level.
func (b *Bank) Set(output Output, level bool) error {
	pin, ok := b.mapping[output]
	if !ok {
		return &errors.HardwareError{Op: "set", Output: output.String(), Pin: -1, Err: errors.ErrUnknownOutput}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pins != nil {
		if err := b.pins.Write(pin, level); err != nil {
			return &errors.HardwareError{Op: "set", Output: output.String(), Pin: pin, Err: err}
		}
	}
	b.levels[output] = level
	b.logger.Debug("%s (pin %d) -> %s", output, pin, levelName(level))
	return nil
}

// Pulse drives output high for d, then low.  The output is driven low
// even when ctx is cancelled mid-pulse.
func (b *Bank) Pulse(ctx context.Context, output Output, d time.Duration) error {
	if err := b.Set(output, true); err != nil {
		return err
	}
	waitErr := sleep(ctx, d)
	if err := b.Set(output, false); err != nil {
		return err
	}
	return waitErr
}

// Level reports the last level written to output.
func (b *Bank) Level(output Output) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.levels[output]
}

// Pin returns the pin number mapped to output.
func (b *Bank) Pin(output Output) (int, bool) {
	p, ok := b.mapping[output]
	return p, ok
}

// AllLow drives every mapped output low, returning the joined errors.
func (b *Bank) AllLow() error {
	var errs []error
	for o := range b.mapping {
		if err := b.Set(o, false); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func levelName(level bool) string {
	if level {
		return "high"
	}
	return "low"
}
