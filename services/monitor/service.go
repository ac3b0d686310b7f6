// services/monitor/service.go
package monitor

import (
	"context"
	"time"

	"heapguard-go/bus"
	"heapguard-go/errcode"
	"heapguard-go/mem/guard"
	"heapguard-go/types"
	"heapguard-go/x/mathx"
	"heapguard-go/x/timex"
)

var (
	topicConfig  = bus.Topic{"config", "monitor"}
	topicStats   = bus.Topic{"heap", "stats"}
	topicOverrun = bus.Topic{"heap", "overrun"}
	topicCheck   = bus.Topic{"heap", "check"}
	topicState   = bus.Topic{"monitor", "state"}
)

const (
	defaultInterval = 1 * time.Second
	minIntervalMS   = 10
	maxIntervalMS   = 60_000
)

// Options tunes the service; zero values take defaults.
type Options struct {
	Interval time.Duration // stats publish period
}

// Service periodically re-checks a heap through a guard.Monitor and publishes
// retained telemetry on the bus. The monitor itself is on-demand only; the
// cadence policy lives here. On overrun the service reports and keeps
// running: what to do about it (log, halt, reset) is the subscribers' call.
type Service struct {
	mon     *guard.Monitor
	mem     guard.Memory
	opt     Options
	tripped bool
}

func New(cfg guard.Config, mem guard.Memory, opt Options) *Service {
	if opt.Interval <= 0 {
		opt.Interval = defaultInterval
	}
	return &Service{
		mon: guard.New(cfg, mem),
		mem: mem,
		opt: opt,
	}
}

// Start launches the service loop in a goroutine.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) {
	go s.serviceLoop(ctx, conn)
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfig)
	defer conn.Unsubscribe(cfgSub)
	checkSub := conn.Subscribe(topicCheck)
	defer conn.Unsubscribe(checkSub)

	conn.Publish(conn.NewMessage(topicState,
		types.ServiceState{Level: "running", Status: string(errcode.OK), TS: timex.NowMs()}, true))

	tick := time.NewTicker(s.opt.Interval)
	defer tick.Stop()

	s.publishStats(conn)

	for {
		select {
		case <-ctx.Done():
			println("Info: monitor service stopping")
			conn.Publish(conn.NewMessage(topicState,
				types.ServiceState{Level: "stopped", Status: string(errcode.OK), TS: timex.NowMs()}, true))
			return
		case <-tick.C:
			s.publishStats(conn)
		case msg := <-cfgSub.Channel():
			if iv, ok := intervalFromConfig(msg.Payload); ok {
				tick.Reset(iv)
				println("Info: monitor interval set to", int(iv.Milliseconds()), "ms")
			} else {
				println("Error: monitor config rejected:", string(errcode.InvalidPayload))
			}
		case msg := <-checkSub.Channel():
			// On-demand check; reply goes to the requester's topic.
			if msg.ReplyTo.Len() == 0 {
				continue
			}
			conn.Publish(conn.NewMessage(msg.ReplyTo, types.CheckReply{
				Status: string(errcode.Of(s.checkErr())),
				Stats:  s.snapshot(),
			}, false))
		}
	}
}

// intervalFromConfig pulls interval_ms out of a config payload. Clamped, not
// rejected, when out of range; only a missing or mistyped value fails.
func intervalFromConfig(payload any) (time.Duration, bool) {
	m, ok := payload.(map[string]any)
	if !ok {
		return 0, false
	}
	var ms int64
	switch v := m["interval_ms"].(type) {
	case float64:
		ms = int64(v)
	case int:
		ms = int64(v)
	case int64:
		ms = v
	default:
		return 0, false
	}
	return timex.FromMs(mathx.Clamp(ms, minIntervalMS, maxIntervalMS)), true
}

// checkErr reports the current overrun condition as an error, nil when the
// heap is healthy. Exhaustion wins over guard corruption when both hold.
func (s *Service) checkErr() error {
	if s.mem.Exhausted() {
		return errcode.HeapExhausted
	}
	if s.mon.IsOverrun() {
		return errcode.GuardCorrupt
	}
	return nil
}

func (s *Service) snapshot() types.HeapStats {
	return types.HeapStats{
		CapBytes:  s.mon.TotalCapacity(),
		UsedBytes: s.mon.UsedBytes(),
		Overrun:   s.mon.IsOverrun(),
		TS:        timex.NowMs(),
	}
}

func (s *Service) publishStats(conn *bus.Connection) {
	st := s.snapshot()
	conn.Publish(conn.NewMessage(topicStats, st, true))

	if st.Overrun && !s.tripped {
		s.tripped = true
		cause := errcode.Of(s.checkErr())
		conn.Publish(conn.NewMessage(topicOverrun, types.OverrunEvent{
			Cause:     string(cause),
			UsedBytes: st.UsedBytes,
			TS:        st.TS,
		}, true))
		println("Error: heap overrun detected:", string(cause))
	}
}
