package main

import (
	"context"
	"time"

	"heapguard-go/bus"
	"heapguard-go/mem/arena"
	"heapguard-go/services/config"
	"heapguard-go/services/monitor"
	"heapguard-go/types"
)

const heapCapBytes = 64 * 1024

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	println("boot")

	b := bus.NewBus(16)
	ctx := context.WithValue(context.Background(), config.CtxDeviceKey, "pico")

	config.NewConfigService().Start(ctx, b.NewConnection("config"))

	heap := arena.New(heapCapBytes)
	svc := monitor.New(heap.Config(), heap, monitor.Options{})
	svc.Start(ctx, b.NewConnection("monitor"))

	// Watch the telemetry the services publish.
	conn := b.NewConnection("main")
	statsSub := conn.Subscribe(bus.Topic{"heap", "stats"})
	overrunSub := conn.Subscribe(bus.Topic{"heap", "overrun"})

	for {
		select {
		case msg := <-statsSub.Channel():
			if st, ok := msg.Payload.(types.HeapStats); ok {
				println("Info: heap used", st.UsedBytes, "of", st.CapBytes)
			}
		case <-overrunSub.Channel():
			println("Error: heap overrun reported")
		}
	}
}
