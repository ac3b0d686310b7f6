// mem/arena/arena.go
package arena

import (
	"encoding/binary"
	"sync/atomic"
	"unsafe"

	"heapguard-go/mem/guard"
)

// Fail is the failure sentinel returned by Grow when the request does not fit.
const Fail = ^uintptr(0)

const guardSize = 4 // one 32-bit sentinel word past the usable range

// Arena is a grow-only linear heap over a fixed byte region. The guard word
// sits immediately after the usable capacity and is written once at setup.
// The cursor only advances; there is no free or shrink.
type Arena struct {
	buf       []byte // capacity + guardSize bytes
	start     uintptr
	capacity  uint32
	off       atomic.Uint32 // cursor offset from start
	exhausted atomic.Bool   // latched on the first refused growth request
}

// New reserves a region of the given capacity and writes the sentinel at the
// guard address.
func New(capacity uint32) *Arena {
	buf := make([]byte, capacity+guardSize)
	a := &Arena{
		buf:      buf,
		start:    uintptr(unsafe.Pointer(&buf[0])),
		capacity: capacity,
	}
	binary.LittleEndian.PutUint32(buf[capacity:], guard.Marker)
	return a
}

// Config describes the region for a guard.Monitor.
func (a *Arena) Config() guard.Config {
	return guard.Config{Start: a.start, Capacity: a.capacity}
}

// Grow advances the cursor by n bytes and returns the address of the new
// block. Grow(0) reports the current cursor without growing. When the request
// does not fit, Grow returns Fail and latches the exhausted flag; the cursor
// is left where it was and later requests that fit still succeed.
func (a *Arena) Grow(n uint32) uintptr {
	if n == 0 {
		return a.Cursor()
	}
	for {
		old := a.off.Load()
		next := old + n
		if next < old || next > a.capacity {
			a.exhausted.Store(true)
			return Fail
		}
		if a.off.CompareAndSwap(old, next) {
			return a.start + uintptr(old)
		}
	}
}

// Bytes exposes the backing region, guard word included, for inspection
// tooling. Writes past the capacity boundary corrupt the sentinel, which is
// exactly what overrun drills do with it.
func (a *Arena) Bytes() []byte { return a.buf }

// guard.Memory

func (a *Arena) Cursor() uintptr  { return a.start + uintptr(a.off.Load()) }
func (a *Arena) Sentinel() uint32 { return binary.LittleEndian.Uint32(a.buf[a.capacity:]) }
func (a *Arena) Exhausted() bool  { return a.exhausted.Load() }
