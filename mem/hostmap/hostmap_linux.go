// mem/hostmap/hostmap_linux.go
package hostmap

import (
	"encoding/binary"
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"

	"heapguard-go/mem/guard"
)

// Region layout in the shared file/shm object, maintained by the heap owner:
//
//	[0, capacity)              heap image
//	[capacity, capacity+4)     32-bit sentinel word
//	[capacity+4, capacity+8)   32-bit cursor offset, little-endian
//	[capacity+8, capacity+12)  32-bit flags word (bit 0: exhausted)
const trailerSize = 12

const flagExhausted = 1 << 0

// Region is a read-only mmap view of a heap region owned by another process.
// It implements guard.Memory, so a guard.Monitor can inspect a live heap
// without sharing an address space with it.
type Region struct {
	data     []byte
	start    uintptr
	capacity uint32
}

// Open maps the shared region at path for a heap of the given capacity.
func Open(path string, capacity uint32) (*Region, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	size := int(capacity) + trailerSize
	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	// A short file would map fine and then SIGBUS on the first trailer read.
	if fi.Size() < int64(size) {
		return nil, fmt.Errorf("hostmap: region file is %d bytes, need %d", fi.Size(), size)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, err
	}
	return &Region{
		data:     data,
		start:    uintptr(unsafe.Pointer(&data[0])),
		capacity: capacity,
	}, nil
}

// Close unmaps the region.
func (r *Region) Close() error {
	data := r.data
	r.data = nil
	return unix.Munmap(data)
}

// Config describes the mapped region for a guard.Monitor. Start is the local
// mapping address; cursor arithmetic stays consistent because Cursor rebases
// the shared offset onto it.
func (r *Region) Config() guard.Config {
	return guard.Config{Start: r.start, Capacity: r.capacity}
}

// guard.Memory

func (r *Region) Cursor() uintptr {
	off := binary.LittleEndian.Uint32(r.data[r.capacity+4:])
	return r.start + uintptr(off)
}

func (r *Region) Sentinel() uint32 {
	return binary.LittleEndian.Uint32(r.data[r.capacity:])
}

func (r *Region) Exhausted() bool {
	return binary.LittleEndian.Uint32(r.data[r.capacity+8:])&flagExhausted != 0
}
