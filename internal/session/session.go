// Package session represents one remote command connection: its
// transport handle, its bounded input buffer and its lifecycle state.
//
// Sessions are owned by the transport listener.  The command
// interpreter borrows one for the duration of a single dispatch.
package session

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"picoctl/internal/errors"
	"picoctl/util"
)

// State is a session's position in its lifecycle.
type State int32

const (
	Open State = iota
	Closing
	Closed
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case Closing:
		return "closing"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Session encapsulates the runtime context for a single connection.
type Session struct {
	ID       uuid.UUID
	Conn     net.Conn
	Logger   *util.Logger
	OpenedAt time.Time

	buf       *LineBuffer
	state     atomic.Int32
	closeOnce sync.Once
	closeErr  error
}

// New creates an open Session bound to conn with an input buffer of
// bufSize bytes.
func New(conn net.Conn, bufSize int, logger *util.Logger) *Session {
	id := uuid.New()
	return &Session{
		ID:       id,
		Conn:     conn,
		Logger:   logger.Named("session " + id.String()[:8]),
		OpenedAt: time.Now(),
		buf:      NewLineBuffer(bufSize),
	}
}

// Buffer returns the session's input buffer.
func (s *Session) Buffer() *LineBuffer { return s.buf }

// State returns the current lifecycle state.
func (s *Session) State() State { return State(s.state.Load()) }

// RemoteAddr is the peer address, or "-" when unknown.
func (s *Session) RemoteAddr() string {
	if s.Conn == nil || s.Conn.RemoteAddr() == nil {
		return "-"
	}
	return s.Conn.RemoteAddr().String()
}

// Send writes p to the peer.  Sending is allowed while Open or
// Closing so that a farewell can follow a close request.
func (s *Session) Send(p []byte) (int, error) {
	if s.State() == Closed {
		return 0, errors.ErrSessionClosed
	}
	n, err := s.Conn.Write(p)
	if err != nil {
		return n, errors.Wrap("write", s.RemoteAddr(), err)
	}
	return n, nil
}

// BeginClose moves an Open session to Closing.  It reports false if
// the session was not Open.
func (s *Session) BeginClose() bool {
	return s.state.CompareAndSwap(int32(Open), int32(Closing))
}

// Close moves the session to Closed and releases the connection.  It is
// safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.state.Store(int32(Closed))
		if s.Conn != nil {
			s.closeErr = s.Conn.Close()
		}
		s.Logger.Debug("closed after %s", time.Since(s.OpenedAt).Truncate(time.Millisecond))
	})
	return s.closeErr
}
