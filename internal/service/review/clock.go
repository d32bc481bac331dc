package review

import "time"

// Clock supplies the current time. Injected so tests can pin the scheduler
// and queue selector to a fixed instant.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

// NewRealClock returns a Clock backed by time.Now in UTC.
func NewRealClock() Clock { return realClock{} }
