package blink

import "sync/atomic"

// atomicBool is the blink flag.  Toggle is a CAS loop so a flip is
// never lost even if a second writer appears.
type atomicBool struct {
	v atomic.Bool
}

func (b *atomicBool) Load() bool { return b.v.Load() }

func (b *atomicBool) Toggle() bool {
	for {
		old := b.v.Load()
		if b.v.CompareAndSwap(old, !old) {
			return !old
		}
	}
}
