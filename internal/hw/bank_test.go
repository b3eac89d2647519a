package hw

import (
	"context"
	"fmt"
	"testing"
	"time"

	"picoctl/internal/errors"
	"picoctl/util"
)

type pinWrite struct {
	pin   int
	level bool
	at    time.Time
}

type fakePins struct {
	writes []pinWrite
	fail   error
}

func (f *fakePins) Write(pin int, level bool) error {
	if f.fail != nil {
		return f.fail
	}
	f.writes = append(f.writes, pinWrite{pin: pin, level: level, at: time.Now()})
	return nil
}

func newTestBank(pins Pins) *Bank {
	return NewBank(pins, map[Output]int{LED: 12, Buzzer: 10}, util.NewLogger(0))
}

func TestBank_Set(t *testing.T) {
	pins := &fakePins{}
	b := newTestBank(pins)

	if err := b.Set(LED, true); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !b.Level(LED) {
		t.Error("LED level should be high")
	}
	if b.Level(Buzzer) {
		t.Error("buzzer should still be low")
	}
	if len(pins.writes) != 1 || pins.writes[0].pin != 12 || !pins.writes[0].level {
		t.Errorf("writes = %+v", pins.writes)
	}
}

func TestBank_UnknownOutput(t *testing.T) {
	b := newTestBank(nil)
	err := b.Set(Output(7), true)
	if !errors.Is(err, errors.ErrUnknownOutput) {
		t.Fatalf("err = %v, want ErrUnknownOutput", err)
	}
}

func TestBank_PinFailure(t *testing.T) {
	b := newTestBank(&fakePins{fail: fmt.Errorf("gpio busy")})
	err := b.Set(Buzzer, true)
	var he *errors.HardwareError
	if !errors.As(err, &he) {
		t.Fatalf("expected HardwareError, got %v", err)
	}
	if he.Pin != 10 || he.Output != "buzzer" {
		t.Errorf("HardwareError = %+v", he)
	}
	if b.Level(Buzzer) {
		t.Error("failed write should not update the recorded level")
	}
}

func TestBank_Pulse(t *testing.T) {
	pins := &fakePins{}
	b := newTestBank(pins)

	start := time.Now()
	if err := b.Pulse(context.Background(), Buzzer, 20*time.Millisecond); err != nil {
		t.Fatalf("Pulse: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("Pulse returned after %v, want >= 20ms", elapsed)
	}

	if len(pins.writes) != 2 {
		t.Fatalf("writes = %+v, want high then low", pins.writes)
	}
	if !pins.writes[0].level || pins.writes[1].level {
		t.Errorf("writes = %+v, want high then low", pins.writes)
	}
	if held := pins.writes[1].at.Sub(pins.writes[0].at); held < 20*time.Millisecond {
		t.Errorf("held high for %v, want >= 20ms", held)
	}
	if b.Level(Buzzer) {
		t.Error("buzzer should end low")
	}
}

func TestBank_PulseCancelledEndsLow(t *testing.T) {
	b := newTestBank(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.Pulse(ctx, LED, time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if b.Level(LED) {
		t.Error("LED should be driven low after cancellation")
	}
}

func TestBank_AllLow(t *testing.T) {
	b := newTestBank(nil)
	b.Set(LED, true)    //nolint:errcheck
	b.Set(Buzzer, true) //nolint:errcheck

	if err := b.AllLow(); err != nil {
		t.Fatalf("AllLow: %v", err)
	}
	if b.Level(LED) || b.Level(Buzzer) {
		t.Error("all outputs should be low")
	}
}

func TestBank_Pin(t *testing.T) {
	b := newTestBank(nil)
	if p, ok := b.Pin(LED); !ok || p != 12 {
		t.Errorf("Pin(LED) = %d, %v", p, ok)
	}
	if _, ok := b.Pin(Output(5)); ok {
		t.Error("unmapped output should report false")
	}
}

func TestOutput_String(t *testing.T) {
	if LED.String() != "led" || Buzzer.String() != "buzzer" || Output(4).String() != "output(4)" {
		t.Error("unexpected output names")
	}
}
