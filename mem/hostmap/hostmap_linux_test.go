package hostmap

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"heapguard-go/mem/guard"
)

const testCap = 256

// writeRegion lays out a heap image file the way an owning process would:
// heap bytes, sentinel, cursor offset, flags.
func writeRegion(t *testing.T, cursor uint32, sentinel uint32, flags uint32) string {
	t.Helper()
	buf := make([]byte, testCap+trailerSize)
	binary.LittleEndian.PutUint32(buf[testCap:], sentinel)
	binary.LittleEndian.PutUint32(buf[testCap+4:], cursor)
	binary.LittleEndian.PutUint32(buf[testCap+8:], flags)

	path := filepath.Join(t.TempDir(), "heap.img")
	if err := os.WriteFile(path, buf, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOpenAndMonitor(t *testing.T) {
	path := writeRegion(t, 64, guard.Marker, 0)

	r, err := Open(path, testCap)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	m := guard.New(r.Config(), r)
	if got := m.TotalCapacity(); got != testCap {
		t.Fatalf("TotalCapacity() = %d, want %d", got, testCap)
	}
	if got := m.UsedBytes(); got != 64 {
		t.Fatalf("UsedBytes() = %d, want 64", got)
	}
	if m.IsOverrun() {
		t.Fatal("IsOverrun() = true on an intact region")
	}
}

func TestSentinelCorruptionVisibleThroughMapping(t *testing.T) {
	path := writeRegion(t, 0, guard.Marker, 0)

	r, err := Open(path, testCap)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	m := guard.New(r.Config(), r)
	if m.IsOverrun() {
		t.Fatal("overrun before corruption")
	}

	// The owner scribbles over the sentinel; MAP_SHARED makes it visible here.
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteAt([]byte{0, 0, 0, 0}, testCap); err != nil {
		t.Fatal(err)
	}
	f.Close()

	if !m.IsOverrun() {
		t.Fatal("IsOverrun() = false after the owner corrupted the sentinel")
	}
}

func TestExhaustedFlag(t *testing.T) {
	path := writeRegion(t, testCap, guard.Marker, flagExhausted)

	r, err := Open(path, testCap)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	m := guard.New(r.Config(), r)
	if !m.IsOverrun() {
		t.Fatal("IsOverrun() = false with the exhausted flag set")
	}
}

func TestOpenShortFile(t *testing.T) {
	// Heap bytes only, no trailer: mapping it would SIGBUS on the first
	// sentinel read, so Open must refuse.
	path := filepath.Join(t.TempDir(), "short.img")
	if err := os.WriteFile(path, make([]byte, testCap), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path, testCap); err == nil {
		t.Fatal("expected error opening a truncated region file")
	}
}

func TestOpenMissingFile(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "nope"), testCap); err == nil {
		t.Fatal("expected error opening a missing region file")
	}
}
