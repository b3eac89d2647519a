package util

import "sync"

// ReadBufSize is the size of one transport delivery.  It is larger than
// any session's line buffer so that oversized input is observed and
// truncated by the session rather than split across deliveries.
const ReadBufSize = 2048

// BufPool provides reusable read buffers for connection reader
// goroutines.
var BufPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, ReadBufSize)
		return &buf
	},
}

// GetBuf retrieves a buffer from the pool.  Callers must return it
// with [PutBuf] when finished.
func GetBuf() *[]byte {
	return BufPool.Get().(*[]byte)
}

// PutBuf returns a buffer to the pool for reuse.
func PutBuf(buf *[]byte) {
	if buf == nil {
		return
	}
	BufPool.Put(buf)
}
