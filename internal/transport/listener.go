package transport

import (
	"context"
	"net"

	"picoctl/internal/errors"
	"picoctl/internal/metrics"
	"picoctl/internal/session"
	"picoctl/util"
)

// eventQueue is deep enough that a burst of small writes from a client
// does not stall its reader while the device loop is mid-beep.
const eventQueue = 16

// TCPListener accepts TCP connections and reports their activity as
// Events.  Every Read on a connection is one Data event; reads are not
// joined or split.
type TCPListener struct {
	Address    string
	BufferSize int // per-session line buffer
	Logger     *util.Logger
	Metrics    *metrics.Collector

	ln     net.Listener
	events chan Event
}

// NewTCPListener prepares a listener on address.  Nothing is bound
// until Listen.
func NewTCPListener(address string, bufferSize int, logger *util.Logger, m *metrics.Collector) *TCPListener {
	return &TCPListener{
		Address:    address,
		BufferSize: bufferSize,
		Logger:     logger.Named("transport"),
		Metrics:    m,
		events:     make(chan Event, eventQueue),
	}
}

// Listen binds the socket and starts accepting in the background until
// ctx is done.  A bind failure matches errors.ErrTransportUnavailable.
func (l *TCPListener) Listen(ctx context.Context) error {
	ln, err := net.Listen("tcp", l.Address)
	if err != nil {
		return errors.Unavailable("listen", l.Address, err)
	}
	l.ln = ln
	l.Logger.Verbose("listening on %s (tcp)", ln.Addr())

	// Shut the listener down when the context expires.
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	go l.acceptLoop(ctx)
	return nil
}

// Addr is the bound address, or nil before Listen.
func (l *TCPListener) Addr() net.Addr {
	if l.ln == nil {
		return nil
	}
	return l.ln.Addr()
}

// Events is the delivery channel.  It is never closed; consumers stop
// on their own context.
func (l *TCPListener) Events() <-chan Event { return l.events }

// Send writes p to the session's peer.
func (l *TCPListener) Send(sess *session.Session, p []byte) error {
	n, err := sess.Send(p)
	l.Metrics.BytesSent(int64(n))
	return err
}

// Close terminates the session's connection.
func (l *TCPListener) Close(sess *session.Session) error {
	return sess.Close()
}

func (l *TCPListener) acceptLoop(ctx context.Context) {
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			if errors.IsRetryable(err) {
				l.Logger.Warn("accept: %v", err)
				continue
			}
			l.Logger.Error("accept: %v", err)
			return
		}

		sess := session.New(conn, l.BufferSize, l.Logger)
		sess.Logger.Verbose("connection from %s", conn.RemoteAddr())

		if !l.post(ctx, Event{Kind: Connect, Session: sess}) {
			sess.Close() //nolint:errcheck
			return
		}
		go l.readLoop(ctx, sess)
	}
}

// readLoop turns reads into Data events.  Any read error ends the
// stream; it is reported once, unless the device already closed the
// session itself.
func (l *TCPListener) readLoop(ctx context.Context, sess *session.Session) {
	buf := util.GetBuf()
	defer util.PutBuf(buf)

	for {
		n, err := sess.Conn.Read(*buf)
		if n > 0 {
			l.Metrics.BytesReceived(int64(n))
			payload := make([]byte, n)
			copy(payload, (*buf)[:n])
			if !l.post(ctx, Event{Kind: Data, Session: sess, Payload: payload}) {
				return
			}
		}
		if err != nil {
			if sess.State() == session.Closed || errors.IsClosed(err) {
				return
			}
			sess.Logger.Debug("read: %v", err)
			l.post(ctx, Event{Kind: Data, Session: sess})
			return
		}
	}
}

func (l *TCPListener) post(ctx context.Context, ev Event) bool {
	select {
	case l.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
