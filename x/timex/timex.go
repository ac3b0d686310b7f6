package timex

import "time"

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// FromMs converts a millisecond count to a Duration.
// ms <= 0 is coerced to 1ms so ticker resets stay valid.
func FromMs(ms int64) time.Duration {
	if ms <= 0 {
		ms = 1
	}
	return time.Duration(ms) * time.Millisecond
}
