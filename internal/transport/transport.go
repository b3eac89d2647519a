// Package transport turns connection-oriented sockets into a stream of
// session events.  Transports handle accepting connections and moving
// bytes; what a line means is the command interpreter's job.
package transport

import (
	"context"
	"fmt"
	"net"

	"picoctl/internal/session"
)

// EventKind distinguishes transport events.
type EventKind int

const (
	// Connect announces a new session.
	Connect EventKind = iota
	// Data delivers one read from a session.  A nil Payload signals
	// end-of-stream.
	Data
)

func (k EventKind) String() string {
	switch k {
	case Connect:
		return "connect"
	case Data:
		return "data"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is one delivery from the transport to the device loop.
type Event struct {
	Kind    EventKind
	Session *session.Session
	Payload []byte
}

// EndOfStream reports whether the event is a Data event without a
// payload, meaning the peer is gone.
func (e Event) EndOfStream() bool {
	return e.Kind == Data && e.Payload == nil
}

// Listener is the device-side transport: a source of events plus the
// two operations the device performs on sessions.
type Listener interface {
	Events() <-chan Event
	Send(sess *session.Session, p []byte) error
	Close(sess *session.Session) error
}

// Dialer opens outbound connections for the console client.
type Dialer interface {
	Dial(ctx context.Context, network, address string) (net.Conn, error)
	Close() error
}
