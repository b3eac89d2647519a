package util

import (
	"context"
	"errors"
	"io"
	"net"
	"sync/atomic"
	"time"
)

// RelayStats counts the bytes moved by Relay in each direction.
type RelayStats struct {
	Sent     int64 // local reader → connection
	Received int64 // connection → local writer
}

// relayDrain is how long Relay waits for the console side to finish
// after the device has hung up.  A terminal read cannot be interrupted,
// so the console goroutine is abandoned after this.
const relayDrain = 100 * time.Millisecond

// Relay shuttles a line-oriented console between conn and a local
// reader/writer pair until the remote side closes or ctx is cancelled.
// Reaching EOF on r half-closes the connection so the device can still
// flush a final response (for example the farewell after "exit").
func Relay(ctx context.Context, conn net.Conn, r io.Reader, w io.Writer) (RelayStats, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var sent, received atomic.Int64
	recvDone := make(chan error, 1)
	sendDone := make(chan error, 1)

	// device → console
	go func() {
		n, err := io.Copy(w, conn)
		received.Add(n)
		recvDone <- err
		cancel()
	}()

	// console → device
	go func() {
		n, err := io.Copy(conn, r)
		sent.Add(n)
		if tc, ok := conn.(*net.TCPConn); ok {
			tc.CloseWrite() //nolint:errcheck
		}
		sendDone <- err
		if err != nil {
			cancel()
		}
	}()

	<-ctx.Done()
	conn.Close() // unblock any pending reads/writes

	errs := []error{<-recvDone}
	select {
	case err := <-sendDone:
		errs = append(errs, err)
	case <-time.After(relayDrain):
	}

	stats := RelayStats{Sent: sent.Load(), Received: received.Load()}
	for _, err := range errs {
		if err != nil && !isHarmless(err) {
			return stats, err
		}
	}
	return stats, nil
}

// isHarmless returns true for errors that are expected during shutdown.
func isHarmless(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return errors.Is(opErr.Err, net.ErrClosed)
	}
	return false
}
