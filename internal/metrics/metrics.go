// Package metrics provides lightweight, lock-free counters for the
// device: sessions, commands, bytes and actuation.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Collector tracks runtime metrics for one device process.
type Collector struct {
	sessionsActive   atomic.Int64
	sessionsTotal    atomic.Int64
	sessionsRejected atomic.Int64
	commandsTotal    atomic.Int64
	unrecognized     atomic.Int64
	truncated        atomic.Int64
	bytesIn          atomic.Int64
	bytesOut         atomic.Int64
	blinkCycles      atomic.Int64
	beeps            atomic.Int64
	errorsTotal      atomic.Int64

	mu           sync.RWMutex
	startTime    time.Time
	commands     map[string]int64
	lastError    time.Time
	lastErrorMsg string
}

// New creates a metrics collector with the start time set to now.
func New() *Collector {
	return &Collector{
		startTime: time.Now(),
		commands:  make(map[string]int64),
	}
}

// ── Session metrics ──────────────────────────────────────────────────

// SessionOpened increments both the active and total counters.
func (c *Collector) SessionOpened() {
	if c == nil {
		return
	}
	c.sessionsActive.Add(1)
	c.sessionsTotal.Add(1)
}

// SessionClosed decrements the active session counter.
func (c *Collector) SessionClosed() {
	if c == nil {
		return
	}
	c.sessionsActive.Add(-1)
}

// SessionRejected counts a connection turned away by the
// second-connect policy.
func (c *Collector) SessionRejected() {
	if c == nil {
		return
	}
	c.sessionsRejected.Add(1)
}

// ActiveSessions returns the current number of open sessions.
func (c *Collector) ActiveSessions() int64 {
	if c == nil {
		return 0
	}
	return c.sessionsActive.Load()
}

// TotalSessions returns the lifetime session count.
func (c *Collector) TotalSessions() int64 {
	if c == nil {
		return 0
	}
	return c.sessionsTotal.Load()
}

// ── Command metrics ──────────────────────────────────────────────────

// CommandDispatched counts one dispatch of the named command kind.
func (c *Collector) CommandDispatched(kind string, recognized bool) {
	if c == nil {
		return
	}
	c.commandsTotal.Add(1)
	if !recognized {
		c.unrecognized.Add(1)
	}
	c.mu.Lock()
	c.commands[kind]++
	c.mu.Unlock()
}

// InputTruncated counts a delivery that exceeded the line buffer.
func (c *Collector) InputTruncated() {
	if c == nil {
		return
	}
	c.truncated.Add(1)
}

// Commands returns the number of dispatches of kind.
func (c *Collector) Commands(kind string) int64 {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.commands[kind]
}

// ── I/O metrics ──────────────────────────────────────────────────────

// BytesReceived records n bytes read from the network.
func (c *Collector) BytesReceived(n int64) {
	if c == nil {
		return
	}
	c.bytesIn.Add(n)
}

// BytesSent records n bytes written to the network.
func (c *Collector) BytesSent(n int64) {
	if c == nil {
		return
	}
	c.bytesOut.Add(n)
}

// TotalBytesIn returns total bytes received.
func (c *Collector) TotalBytesIn() int64 {
	if c == nil {
		return 0
	}
	return c.bytesIn.Load()
}

// TotalBytesOut returns total bytes sent.
func (c *Collector) TotalBytesOut() int64 {
	if c == nil {
		return 0
	}
	return c.bytesOut.Load()
}

// ── Actuation metrics ────────────────────────────────────────────────

// BlinkCycle records one completed LED on/off cycle.
func (c *Collector) BlinkCycle() {
	if c == nil {
		return
	}
	c.blinkCycles.Add(1)
}

// Beep records one buzzer pulse.
func (c *Collector) Beep() {
	if c == nil {
		return
	}
	c.beeps.Add(1)
}

// BlinkCycles returns the number of completed blink cycles.
func (c *Collector) BlinkCycles() int64 {
	if c == nil {
		return 0
	}
	return c.blinkCycles.Load()
}

// ── Error metrics ────────────────────────────────────────────────────

// RecordError increments the error counter and stores the message.
func (c *Collector) RecordError(msg string) {
	if c == nil {
		return
	}
	c.errorsTotal.Add(1)
	c.mu.Lock()
	c.lastError = time.Now()
	c.lastErrorMsg = msg
	c.mu.Unlock()
}

// ErrorCount returns the total number of errors recorded.
func (c *Collector) ErrorCount() int64 {
	if c == nil {
		return 0
	}
	return c.errorsTotal.Load()
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Uptime           string           `json:"uptime"`
	SessionsActive   int64            `json:"sessions_active"`
	SessionsTotal    int64            `json:"sessions_total"`
	SessionsRejected int64            `json:"sessions_rejected"`
	CommandsTotal    int64            `json:"commands_total"`
	Commands         map[string]int64 `json:"commands,omitempty"`
	Unrecognized     int64            `json:"unrecognized"`
	Truncated        int64            `json:"truncated"`
	BytesIn          int64            `json:"bytes_in"`
	BytesOut         int64            `json:"bytes_out"`
	BlinkCycles      int64            `json:"blink_cycles"`
	Beeps            int64            `json:"beeps"`
	ErrorsTotal      int64            `json:"errors_total"`
	LastError        string           `json:"last_error,omitempty"`
	LastErrorMessage string           `json:"last_error_message,omitempty"`
}

// Snapshot returns a copy of all current metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Uptime:           time.Since(c.startTime).Truncate(time.Second).String(),
		SessionsActive:   c.sessionsActive.Load(),
		SessionsTotal:    c.sessionsTotal.Load(),
		SessionsRejected: c.sessionsRejected.Load(),
		CommandsTotal:    c.commandsTotal.Load(),
		Unrecognized:     c.unrecognized.Load(),
		Truncated:        c.truncated.Load(),
		BytesIn:          c.bytesIn.Load(),
		BytesOut:         c.bytesOut.Load(),
		BlinkCycles:      c.blinkCycles.Load(),
		Beeps:            c.beeps.Load(),
		ErrorsTotal:      c.errorsTotal.Load(),
	}
	if len(c.commands) > 0 {
		s.Commands = make(map[string]int64, len(c.commands))
		for k, v := range c.commands {
			s.Commands[k] = v
		}
	}
	if !c.lastError.IsZero() {
		s.LastError = c.lastError.Format(time.RFC3339)
		s.LastErrorMessage = c.lastErrorMsg
	}
	return s
}

// JSON returns the snapshot as an indented JSON string.
func (c *Collector) JSON() string {
	s := c.Snapshot()
	data, _ := json.MarshalIndent(s, "", "  ")
	return string(data)
}
