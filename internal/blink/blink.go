// Package blink drives the periodic LED cycle.  The scheduler owns a
// single shared flag; the command interpreter flips it and the device
// loop polls Tick once per iteration.
package blink

import (
	"context"
	"time"

	"picoctl/internal/hw"
	"picoctl/internal/metrics"
	"picoctl/util"
)

// Waiter blocks for d.  The device loop passes a Waiter that services
// pending network events while it waits, which makes every hold a
// cooperative yield point.
type Waiter func(ctx context.Context, d time.Duration) error

// Sleep is the plain Waiter: it only waits.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Scheduler holds the blink flag and runs one LED cycle per tick.
type Scheduler struct {
	act     hw.Actuator
	hold    time.Duration
	idle    time.Duration
	logger  *util.Logger
	metrics *metrics.Collector

	state atomicBool
}

// New returns a stopped scheduler.  hold is both the on and the off
// time of a cycle; idle is the wait per tick while stopped.
func New(act hw.Actuator, hold, idle time.Duration, logger *util.Logger, m *metrics.Collector) *Scheduler {
	return &Scheduler{
		act:     act,
		hold:    hold,
		idle:    idle,
		logger:  logger.Named("blink"),
		metrics: m,
	}
}

// Enabled reports whether the LED is being blinked.
func (s *Scheduler) Enabled() bool { return s.state.Load() }

// Toggle flips the flag and returns the new value.
func (s *Scheduler) Toggle() bool {
	on := s.state.Toggle()
	s.logger.Verbose("blinking %s", onOff(on))
	return on
}

// Tick runs one iteration: a full on/off cycle when enabled, an idle
// wait otherwise.  The flag is read once, at the start of the tick.
// A cycle interrupted by ctx still leaves the LED low.
func (s *Scheduler) Tick(ctx context.Context, wait Waiter) error {
	if wait == nil {
		wait = Sleep
	}
	if !s.state.Load() {
		return wait(ctx, s.idle)
	}

	if err := s.act.Set(hw.LED, true); err != nil {
		return err
	}
	if err := wait(ctx, s.hold); err != nil {
		s.act.Set(hw.LED, false) //nolint:errcheck
		return err
	}
	if err := s.act.Set(hw.LED, false); err != nil {
		return err
	}
	if err := wait(ctx, s.hold); err != nil {
		return err
	}
	s.metrics.BlinkCycle()
	return nil
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
