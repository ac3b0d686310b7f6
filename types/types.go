package types

// ---- Service state (retained) ----

type ServiceState struct {
	Level  string `json:"level"`  // e.g. "running", "stopped"
	Status string `json:"status"` // freeform short code
	TS     int64  `json:"ts_ms"`
}

// ---- Heap telemetry payloads ----

// HeapStats is published under heap/stats (retained).
type HeapStats struct {
	CapBytes  uint32 `json:"cap_bytes"`
	UsedBytes uint32 `json:"used_bytes"`
	Overrun   bool   `json:"overrun"`
	TS        int64  `json:"ts_ms"`
}

// CheckReply answers a heap/check request: the snapshot plus a status code
// ("ok", "heap_exhausted", "guard_corrupt").
type CheckReply struct {
	Status string    `json:"status"`
	Stats  HeapStats `json:"stats"`
}

// OverrunEvent is published under heap/overrun (retained) on the first
// false->true transition of the overrun check. Cause is an errcode string:
// "heap_exhausted" or "guard_corrupt".
type OverrunEvent struct {
	Cause     string `json:"cause"`
	UsedBytes uint32 `json:"used_bytes"`
	TS        int64  `json:"ts_ms"`
}
