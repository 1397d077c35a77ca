package engine

import "time"

// Clock supplies wall-clock time. Elapsed time at submission is computed
// from the clock, not from accumulated ticks, so a throttled tick stream
// cannot skew the reported duration.
type Clock interface {
	Now() time.Time
}

// Timer is a cancelable delayed task handle.
type Timer interface {
	Stop() bool
}

// Scheduler creates delayed task handles. The production implementation
// wraps time.AfterFunc; tests substitute a virtual-time scheduler.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type systemScheduler struct{}

func (systemScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// stopTimer cancels a handle if one is pending.
func stopTimer(t Timer) {
	if t != nil {
		t.Stop()
	}
}
