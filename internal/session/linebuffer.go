package session

import "bytes"

// lineTerminators ends a command token.  NUL is included because
// telnet clients may send CR NUL as their end-of-line.
const lineTerminators = "\r\n\x00"

// LineBuffer holds exactly one delivery of input, bounded to a fixed
// capacity.  Bytes beyond the capacity are dropped, never carried over
// to the next delivery.
type LineBuffer struct {
	buf     []byte
	n       int
	dropped int
}

// NewLineBuffer returns a buffer holding at most capacity bytes.
func NewLineBuffer(capacity int) *LineBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &LineBuffer{buf: make([]byte, capacity)}
}

// Load replaces the buffer contents with p, truncated to capacity, and
// returns the number of bytes dropped.
func (b *LineBuffer) Load(p []byte) int {
	b.n = copy(b.buf, p)
	b.dropped = len(p) - b.n
	return b.dropped
}

// Line returns the buffered bytes up to, not including, the first line
// terminator.  The slice aliases the buffer and is only valid until the
// next Load.
func (b *LineBuffer) Line() []byte {
	data := b.buf[:b.n]
	if i := bytes.IndexAny(data, lineTerminators); i >= 0 {
		return data[:i]
	}
	return data
}

// Bytes returns everything held after truncation.
func (b *LineBuffer) Bytes() []byte { return b.buf[:b.n] }

// Len is the number of bytes held.
func (b *LineBuffer) Len() int { return b.n }

// Cap is the fixed capacity.
func (b *LineBuffer) Cap() int { return len(b.buf) }

// Dropped is the number of bytes discarded by the last Load.
func (b *LineBuffer) Dropped() int { return b.dropped }

// Reset empties the buffer.
func (b *LineBuffer) Reset() {
	b.n = 0
	b.dropped = 0
}
