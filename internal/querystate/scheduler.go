package querystate

import "time"

// Scheduler runs fn at some point after the current mutation has settled.
// Implementations must not run fn synchronously inside Schedule.
type Scheduler interface {
	Schedule(fn func())
}

type delayScheduler struct {
	delay time.Duration
}

// DelayScheduler runs each scheduled function on its own timer after d.
func DelayScheduler(d time.Duration) Scheduler {
	return delayScheduler{delay: d}
}

func (s delayScheduler) Schedule(fn func()) {
	time.AfterFunc(s.delay, fn)
}
