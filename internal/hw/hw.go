// Package hw is the actuation boundary of the device: binary output
// channels addressed by logical identifiers.  Raw pin I/O lives behind
// the Pins interface so the rest of the code never touches hardware.
package hw

import (
	"context"
	"fmt"
	"time"
)

// Output names a logical output channel.
type Output int

const (
	LED Output = iota
	Buzzer
)

func (o Output) String() string {
	switch o {
	case LED:
		return "led"
	case Buzzer:
		return "buzzer"
	default:
		return fmt.Sprintf("output(%d)", int(o))
	}
}

// Actuator drives binary outputs.
type Actuator interface {
	// Set drives output to level (true = high).
	Set(output Output, level bool) error

	// Pulse drives output high, blocks for d, then drives it low.
	Pulse(ctx context.Context, output Output, d time.Duration) error
}

// Pins writes a level to a physical pin number.  Board support
// packages provide the real implementation.
type Pins interface {
	Write(pin int, level bool) error
}

// sleep blocks for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
