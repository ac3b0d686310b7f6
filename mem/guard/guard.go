// mem/guard/guard.go
//
// Heap usage and overrun reporting over a linear, grow-only heap. The heap
// proper is owned elsewhere (mem/arena on device, mem/hostmap when inspecting
// another process); this package only reads it.
package guard

// Marker is the 32-bit sentinel written once, at heap setup, to the word
// immediately past the usable heap range. The initialiser and the monitor
// must agree on this value; both sides reference this constant.
const Marker uint32 = 0xFAFBFCFD

// Config fixes the heap region for the life of the process.
type Config struct {
	Start    uintptr // first address of the heap region
	Capacity uint32  // configured maximum heap size in bytes
}

// Memory is the live view of the heap the monitor inspects. Implementations
// must not allocate: the monitor has to stay usable when the heap it is
// watching is exhausted.
type Memory interface {
	// Cursor returns the current high-water address of heap usage.
	Cursor() uintptr
	// Sentinel returns the 32-bit value currently at the guard address.
	Sentinel() uint32
	// Exhausted reports whether a growth request has returned the
	// allocator's failure sentinel.
	Exhausted() bool
}

// Monitor answers capacity/usage/overrun queries. It holds no state of its
// own beyond the region config: every call re-reads live memory through the
// Memory view. All methods are total; a detected overrun is a normal true
// return, never an error or panic.
type Monitor struct {
	cfg Config
	mem Memory
}

func New(cfg Config, mem Memory) *Monitor {
	return &Monitor{cfg: cfg, mem: mem}
}

// TotalCapacity returns the configured maximum heap size in bytes.
func (m *Monitor) TotalCapacity() uint32 { return m.cfg.Capacity }

// UsedBytes returns the bytes between the heap start and the current
// allocation cursor. Under a well-behaved allocator this is the exact number
// of bytes handed out so far.
func (m *Monitor) UsedBytes() uint32 {
	return uint32(m.mem.Cursor() - m.cfg.Start)
}

// IsOverrun reports whether the heap has collided with another region. True
// when the allocator has refused a growth request, or when the sentinel word
// no longer matches Marker (most plausibly a downward-growing stack wrote
// over it). Best-effort: corruption that faults the processor before this
// check runs is not caught.
func (m *Monitor) IsOverrun() bool {
	if m.mem.Exhausted() {
		return true
	}
	return m.mem.Sentinel() != Marker
}
