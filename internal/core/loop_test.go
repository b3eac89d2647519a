package core

import (
	"context"
	"fmt"
	"testing"
	"time"

	"picoctl/config"
	"picoctl/internal/blink"
	"picoctl/internal/command"
	"picoctl/internal/hw"
	"picoctl/internal/metrics"
	"picoctl/internal/netid"
	"picoctl/internal/session"
	"picoctl/internal/transport"
)

func newLoop(t *testing.T, policy string) (*Loop, *fakeListener, *recorder, *metrics.Collector) {
	t.Helper()
	fl := newFakeListener()
	rec := &recorder{}
	m := metrics.New()
	log := quietLogger()
	sched := blink.New(rec, 5*time.Millisecond, 5*time.Millisecond, log, m)
	id, err := netid.Parse("192.168.1.42")
	if err != nil {
		t.Fatal(err)
	}
	return &Loop{
		Listener: fl,
		Interpreter: &command.Interpreter{
			Blink:        sched,
			Actuator:     rec,
			Identity:     id,
			BeepDuration: time.Millisecond,
			Logger:       log,
			Metrics:      m,
		},
		Blink:         sched,
		Actuator:      rec,
		SecondConnect: policy,
		Logger:        log,
		Metrics:       m,
	}, fl, rec, m
}

func newSession() *session.Session {
	return session.New(nil, 128, quietLogger())
}

func connectEv(s *session.Session) transport.Event {
	return transport.Event{Kind: transport.Connect, Session: s}
}

func dataEv(s *session.Session, p string) transport.Event {
	return transport.Event{Kind: transport.Data, Session: s, Payload: []byte(p)}
}

func eofEv(s *session.Session) transport.Event {
	return transport.Event{Kind: transport.Data, Session: s}
}

func TestLoop_DispatchResponds(t *testing.T) {
	l, fl, _, m := newLoop(t, config.SecondConnectReplace)
	ctx := context.Background()
	sess := newSession()

	l.dispatch(ctx, connectEv(sess))
	if l.Active() != sess {
		t.Fatal("connect should make the session active")
	}

	l.dispatch(ctx, dataEv(sess, "help\r\n"))
	l.dispatch(ctx, dataEv(sess, "ip\n"))

	got := fl.responses(sess)
	want := []string{command.HelpText, "Endereço IP: 192.168.1.42\n"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("responses = %q, want %q", got, want)
	}
	if m.ActiveSessions() != 1 || m.TotalSessions() != 1 {
		t.Errorf("sessions active=%d total=%d", m.ActiveSessions(), m.TotalSessions())
	}
}

func TestLoop_ExitClosesAfterFarewell(t *testing.T) {
	l, fl, _, m := newLoop(t, config.SecondConnectReplace)
	ctx := context.Background()
	sess := newSession()

	l.dispatch(ctx, connectEv(sess))
	l.dispatch(ctx, dataEv(sess, "exit\r\n"))

	if got := fl.responses(sess); len(got) != 1 || got[0] != command.Farewell {
		t.Fatalf("responses = %q", got)
	}
	if !fl.isClosed(sess) || sess.State() != session.Closed {
		t.Fatalf("session should be closed, state %v", sess.State())
	}
	if l.Active() != nil {
		t.Error("no session should be active after exit")
	}

	// Nothing further is dispatched for the closed session.
	l.dispatch(ctx, dataEv(sess, "help\n"))
	if got := fl.responses(sess); len(got) != 1 {
		t.Errorf("closed session got more responses: %q", got)
	}
	if m.Commands("help") != 0 {
		t.Error("interpreter ran for a closed session")
	}
	if m.ActiveSessions() != 0 {
		t.Errorf("active = %d", m.ActiveSessions())
	}
}

func TestLoop_EndOfStreamSkipsInterpreter(t *testing.T) {
	l, fl, _, m := newLoop(t, config.SecondConnectReplace)
	ctx := context.Background()
	sess := newSession()

	l.dispatch(ctx, connectEv(sess))
	l.dispatch(ctx, eofEv(sess))

	if sess.State() != session.Closed {
		t.Errorf("state = %v, want closed", sess.State())
	}
	if len(fl.responses(sess)) != 0 {
		t.Error("end-of-stream must not produce a response")
	}
	if m.Snapshot().CommandsTotal != 0 {
		t.Error("end-of-stream must not reach the interpreter")
	}
}

func TestLoop_DataWithoutSessionIgnored(t *testing.T) {
	l, fl, _, m := newLoop(t, config.SecondConnectReplace)
	ctx := context.Background()
	stray := newSession()

	l.dispatch(ctx, dataEv(stray, "beep\n"))
	l.dispatch(ctx, eofEv(stray))
	l.dispatch(ctx, transport.Event{Kind: transport.Data})

	if len(fl.responses(stray)) != 0 || m.Snapshot().CommandsTotal != 0 {
		t.Error("data for an unknown session must be ignored")
	}
	if stray.State() != session.Open {
		t.Error("unknown session must not be touched")
	}
}

func TestLoop_SecondConnectReplace(t *testing.T) {
	l, fl, _, m := newLoop(t, config.SecondConnectReplace)
	ctx := context.Background()
	first, second := newSession(), newSession()

	l.dispatch(ctx, connectEv(first))
	l.dispatch(ctx, connectEv(second))

	if l.Active() != second {
		t.Fatal("second connection should become active")
	}
	if !fl.isClosed(first) {
		t.Error("replaced session should be closed")
	}

	l.dispatch(ctx, dataEv(first, "ip\n"))
	if len(fl.responses(first)) != 0 {
		t.Error("replaced session must be ignored")
	}
	if m.ActiveSessions() != 1 || m.TotalSessions() != 2 {
		t.Errorf("sessions active=%d total=%d", m.ActiveSessions(), m.TotalSessions())
	}
}

func TestLoop_SecondConnectReject(t *testing.T) {
	l, fl, _, m := newLoop(t, config.SecondConnectReject)
	ctx := context.Background()
	first, second := newSession(), newSession()

	l.dispatch(ctx, connectEv(first))
	l.dispatch(ctx, connectEv(second))

	if l.Active() != first {
		t.Fatal("first connection should stay active")
	}
	if !fl.isClosed(second) || fl.isClosed(first) {
		t.Error("only the newcomer should be closed")
	}
	if m.Snapshot().SessionsRejected != 1 {
		t.Errorf("rejected = %d", m.Snapshot().SessionsRejected)
	}

	l.dispatch(ctx, dataEv(second, "ip\n"))
	l.dispatch(ctx, dataEv(first, "ip\n"))
	if len(fl.responses(second)) != 0 || len(fl.responses(first)) != 1 {
		t.Error("only the active session should be served")
	}
}

func TestLoop_SendFailureCloses(t *testing.T) {
	l, fl, _, m := newLoop(t, config.SecondConnectReplace)
	ctx := context.Background()
	sess := newSession()

	l.dispatch(ctx, connectEv(sess))
	fl.sendErr = fmt.Errorf("broken pipe")
	l.dispatch(ctx, dataEv(sess, "help\n"))

	if l.Active() != nil || !fl.isClosed(sess) {
		t.Error("write failure should close the session")
	}
	if m.ErrorCount() != 1 {
		t.Errorf("errors = %d", m.ErrorCount())
	}
}

func TestLoop_RunBlinksAndServices(t *testing.T) {
	l, fl, rec, m := newLoop(t, config.SecondConnectReplace)
	sess := newSession()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	fl.events <- connectEv(sess)
	fl.events <- dataEv(sess, "piscar\n")

	if !eventually(2*time.Second, func() bool { return len(fl.responses(sess)) == 1 }) {
		t.Fatal("piscar was not serviced while the loop waited")
	}
	if got := fl.responses(sess)[0]; got != command.BlinkOn {
		t.Errorf("response = %q", got)
	}
	if !eventually(2*time.Second, func() bool { return m.BlinkCycles() >= 2 }) {
		t.Fatal("no blink cycles ran")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
	}

	steps := rec.snapshot()
	last := steps[len(steps)-1]
	if last.output != hw.LED || last.level {
		t.Errorf("LED should end low, last step %+v", last)
	}
	if !fl.isClosed(sess) {
		t.Error("shutdown should close the active session")
	}
}

func TestLoop_PiscarTwiceStops(t *testing.T) {
	l, fl, rec, _ := newLoop(t, config.SecondConnectReplace)
	ctx := context.Background()
	sess := newSession()

	l.dispatch(ctx, connectEv(sess))
	l.dispatch(ctx, dataEv(sess, "piscar\n"))
	if err := l.Blink.Tick(ctx, blink.Sleep); err != nil {
		t.Fatal(err)
	}
	l.dispatch(ctx, dataEv(sess, "piscar\n"))
	if err := l.Blink.Tick(ctx, blink.Sleep); err != nil {
		t.Fatal(err)
	}

	if l.Blink.Enabled() {
		t.Error("two toggles should restore the flag")
	}
	if got := fl.responses(sess); fmt.Sprint(got) != fmt.Sprint([]string{command.BlinkOn, command.BlinkOff}) {
		t.Errorf("responses = %q", got)
	}
	steps := rec.snapshot()
	if len(steps) != 2 || !steps[0].level || steps[1].level {
		t.Errorf("expected exactly one on/off cycle, got %+v", steps)
	}
}
