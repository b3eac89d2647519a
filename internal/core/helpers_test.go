package core

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"picoctl/internal/hw"
	"picoctl/internal/session"
	"picoctl/internal/transport"
	"picoctl/util"
)

func quietLogger() *util.Logger {
	l := util.NewLogger(0)
	l.SetOutput(io.Discard)
	return l
}

// fakeListener records what the loop sends and closes.
type fakeListener struct {
	events chan transport.Event

	mu      sync.Mutex
	sent    map[*session.Session][]string
	closed  map[*session.Session]bool
	sendErr error
}

func newFakeListener() *fakeListener {
	return &fakeListener{
		events: make(chan transport.Event, 16),
		sent:   make(map[*session.Session][]string),
		closed: make(map[*session.Session]bool),
	}
}

func (f *fakeListener) Events() <-chan transport.Event { return f.events }

func (f *fakeListener) Send(sess *session.Session, p []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent[sess] = append(f.sent[sess], string(p))
	return nil
}

func (f *fakeListener) Close(sess *session.Session) error {
	f.mu.Lock()
	f.closed[sess] = true
	f.mu.Unlock()
	return sess.Close()
}

func (f *fakeListener) responses(sess *session.Session) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent[sess]...)
}

func (f *fakeListener) isClosed(sess *session.Session) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed[sess]
}

type step struct {
	output hw.Output
	level  bool
}

// recorder is a concurrency-safe Actuator that remembers transitions.
type recorder struct {
	mu    sync.Mutex
	steps []step
}

func (r *recorder) Set(o hw.Output, level bool) error {
	r.mu.Lock()
	r.steps = append(r.steps, step{o, level})
	r.mu.Unlock()
	return nil
}

func (r *recorder) Pulse(ctx context.Context, o hw.Output, d time.Duration) error {
	r.Set(o, true) //nolint:errcheck
	time.Sleep(d)
	return r.Set(o, false)
}

func (r *recorder) snapshot() []step {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]step(nil), r.steps...)
}

// syncBuffer is a bytes.Buffer safe for one writer and one reader.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// eventually polls cond until it holds or the deadline passes.
func eventually(d time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

// captureDisplay remembers the last frame, joined with "|".
type captureDisplay struct {
	mu    sync.Mutex
	lines string
}

func (d *captureDisplay) Show(lines []string) error {
	d.mu.Lock()
	d.lines = strings.Join(lines, "|")
	d.mu.Unlock()
	return nil
}

func (d *captureDisplay) get() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lines
}
