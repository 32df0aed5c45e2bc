package engine

import "time"

// Clock supplies the current instant. The engine stores all instants as
// absolute milliseconds since epoch, so a fake clock makes every schedule
// computation deterministic in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }
