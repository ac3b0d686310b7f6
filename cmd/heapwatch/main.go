// cmd/heapwatch: host-side demo of the heap telemetry stack. Builds an arena,
// runs the monitor service over a bus, applies allocation pressure, then
// corrupts the guard word to show overrun detection.
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/c2h5oh/datasize"

	"heapguard-go/bus"
	"heapguard-go/mem/arena"
	"heapguard-go/services/monitor"
	"heapguard-go/types"
	"heapguard-go/x/mathx"
)

const capBytes = 4096

func main() {
	heap := arena.New(capBytes)

	b := bus.NewBus(16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := monitor.New(heap.Config(), heap, monitor.Options{Interval: 50 * time.Millisecond})
	svc.Start(ctx, b.NewConnection("monitor"))

	conn := b.NewConnection("heapwatch")
	statsSub := conn.Subscribe(bus.Topic{"heap", "stats"})
	overrunSub := conn.Subscribe(bus.Topic{"heap", "overrun"})

	// Allocation pressure: a block per tick until ~3/4 full, then a corrupted
	// guard word.
	go func() {
		for heap.Grow(0)-heap.Config().Start < capBytes*3/4 {
			heap.Grow(256)
			time.Sleep(60 * time.Millisecond)
		}
		heap.Bytes()[capBytes] ^= 0xFF
	}()

	for {
		select {
		case msg := <-statsSub.Channel():
			st, ok := msg.Payload.(types.HeapStats)
			if !ok {
				continue
			}
			pct := mathx.RoundDiv(uint64(st.UsedBytes)*100, uint64(st.CapBytes))
			fmt.Printf("heap: %s / %s (%d%%)\n",
				datasize.ByteSize(st.UsedBytes).HR(),
				datasize.ByteSize(st.CapBytes).HR(),
				pct)
		case msg := <-overrunSub.Channel():
			ev, _ := msg.Payload.(types.OverrunEvent)
			fmt.Printf("OVERRUN: cause=%s used=%s\n",
				ev.Cause, datasize.ByteSize(ev.UsedBytes).HR())
			return
		case <-time.After(5 * time.Second):
			fmt.Println("no overrun observed, giving up")
			return
		}
	}
}
