package core

import (
	"context"
	"time"

	"picoctl/config"
	"picoctl/internal/blink"
	"picoctl/internal/command"
	"picoctl/internal/errors"
	"picoctl/internal/hw"
	"picoctl/internal/metrics"
	"picoctl/internal/session"
	"picoctl/internal/transport"
	"picoctl/util"
)

// tickRetry spaces out blink ticks after an actuator failure so a
// broken LED cannot spin the loop.
const tickRetry = time.Second

// Loop is the device's single cooperative task.  It owns the
// interpreter and the active session; transport goroutines only feed
// it events.  Events are serviced while the blink scheduler waits, so
// every hold is a yield point and dispatch never runs concurrently.
type Loop struct {
	Listener      transport.Listener
	Interpreter   *command.Interpreter
	Blink         *blink.Scheduler
	Actuator      hw.Actuator
	SecondConnect string
	Logger        *util.Logger
	Metrics       *metrics.Collector

	active *session.Session
}

// Run ticks the blink scheduler until ctx is done.  On return the
// active session is closed and the LED is low.
func (l *Loop) Run(ctx context.Context) error {
	defer l.shutdown()

	for {
		err := l.Blink.Tick(ctx, l.wait)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			l.Logger.Warn("blink: %v", err)
			l.Metrics.RecordError(err.Error())
			if l.wait(ctx, tickRetry) != nil {
				return nil
			}
		}
	}
}

// Active returns the session currently accepting commands, or nil.
func (l *Loop) Active() *session.Session { return l.active }

// wait is the blink.Waiter handed to the scheduler: it dispatches
// pending events until d has elapsed.
func (l *Loop) wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	events := l.Listener.Events()
	for {
		select {
		case ev := <-events:
			l.dispatch(ctx, ev)
		case <-timer.C:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// dispatch is the only place transport events are acted upon.
func (l *Loop) dispatch(ctx context.Context, ev transport.Event) {
	switch ev.Kind {
	case transport.Connect:
		l.connect(ev.Session)

	case transport.Data:
		sess := ev.Session
		if sess == nil || sess != l.active {
			if sess != nil {
				sess.Logger.Debug("%v: ignoring %d bytes", errors.ErrNoSession, len(ev.Payload))
			}
			return
		}
		if ev.EndOfStream() {
			sess.Logger.Verbose("peer closed the connection")
			l.closeActive()
			return
		}

		resp, closeAfter := l.Interpreter.Handle(ctx, sess, ev.Payload)
		if closeAfter {
			sess.BeginClose()
		}
		if err := l.Listener.Send(sess, resp); err != nil {
			sess.Logger.Warn("send: %v", err)
			l.Metrics.RecordError(err.Error())
			l.closeActive()
			return
		}
		if closeAfter {
			l.closeActive()
		}
	}
}

func (l *Loop) connect(sess *session.Session) {
	if l.active != nil {
		if l.SecondConnect == config.SecondConnectReject {
			sess.Logger.Info("rejected %s: session already active", sess.RemoteAddr())
			l.Metrics.SessionRejected()
			l.Listener.Close(sess) //nolint:errcheck
			return
		}
		l.active.Logger.Info("replaced by %s", sess.RemoteAddr())
		l.closeActive()
	}

	l.active = sess
	l.Metrics.SessionOpened()
	sess.Logger.Info("connected from %s", sess.RemoteAddr())
}

func (l *Loop) closeActive() {
	if l.active == nil {
		return
	}
	if err := l.Listener.Close(l.active); err != nil && !errors.IsClosed(err) {
		l.active.Logger.Debug("close: %v", err)
	}
	l.Metrics.SessionClosed()
	l.active = nil
}

func (l *Loop) shutdown() {
	l.closeActive()
	if err := l.Actuator.Set(hw.LED, false); err != nil {
		l.Logger.Warn("led off: %v", err)
	}
}
