package guard

import "testing"

// fakeMem simulates an allocator's live state without any real heap.
type fakeMem struct {
	start     uintptr
	used      uint32
	sentinel  uint32
	exhausted bool
}

func newFakeMem() *fakeMem {
	return &fakeMem{start: 0x2000_0000, sentinel: Marker}
}

func (f *fakeMem) Cursor() uintptr  { return f.start + uintptr(f.used) }
func (f *fakeMem) Sentinel() uint32 { return f.sentinel }
func (f *fakeMem) Exhausted() bool  { return f.exhausted }

func newMonitor(capacity uint32, f *fakeMem) *Monitor {
	return New(Config{Start: f.start, Capacity: capacity}, f)
}

func TestFreshHeap(t *testing.T) {
	f := newFakeMem()
	m := newMonitor(4096, f)

	if got := m.TotalCapacity(); got != 4096 {
		t.Fatalf("TotalCapacity() = %d, want 4096", got)
	}
	if got := m.UsedBytes(); got != 0 {
		t.Fatalf("UsedBytes() = %d, want 0 on a fresh heap", got)
	}
	if m.IsOverrun() {
		t.Fatal("IsOverrun() = true on a fresh heap")
	}
}

func TestUsedBytesTracksCursor(t *testing.T) {
	f := newFakeMem()
	m := newMonitor(4096, f)

	steps := []uint32{1, 16, 100, 1024}
	var total uint32
	for _, n := range steps {
		f.used += n
		total += n
		if got := m.UsedBytes(); got != total {
			t.Fatalf("after %d bytes of growth UsedBytes() = %d, want %d", total, got, total)
		}
	}

	// Idempotent: repeated queries without growth agree.
	for i := 0; i < 3; i++ {
		if got := m.UsedBytes(); got != total {
			t.Fatalf("repeat %d: UsedBytes() = %d, want %d", i, got, total)
		}
	}
}

func TestOverrunOnSentinelCorruption(t *testing.T) {
	corrupt := []uint32{0, 1, 0xFAFBFCFC, 0xFDFCFBFA, ^Marker}
	for _, v := range corrupt {
		f := newFakeMem()
		m := newMonitor(4096, f)

		f.sentinel = v
		if !m.IsOverrun() {
			t.Errorf("sentinel %#x: IsOverrun() = false, want true", v)
		}
	}
}

func TestOverrunOnExhaustion(t *testing.T) {
	f := newFakeMem()
	m := newMonitor(4096, f)

	// Exhaustion alone trips the check, guard content notwithstanding.
	f.exhausted = true
	if !m.IsOverrun() {
		t.Fatal("IsOverrun() = false with allocator exhausted and sentinel intact")
	}
}

func TestStatelessPerCall(t *testing.T) {
	f := newFakeMem()
	m := newMonitor(4096, f)

	f.sentinel = 0xDEADBEEF
	if !m.IsOverrun() {
		t.Fatal("expected overrun after corruption")
	}
	// The monitor caches nothing: restoring the word clears the report.
	f.sentinel = Marker
	if m.IsOverrun() {
		t.Fatal("expected overrun to clear once the sentinel reads back intact")
	}
}
