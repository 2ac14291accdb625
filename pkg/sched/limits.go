package sched

import "errors"

// Tracker observes scheduler progress and may halt a runaway run. Tick is
// called once per coroutine resume.
type Tracker interface {
	Tick() error
}

// NoLimitTracker never halts.
type NoLimitTracker struct{}

func (NoLimitTracker) Tick() error { return nil }

// ErrTickLimit is the halt cause reported by LimitedTracker.
var ErrTickLimit = errors.New("tick limit exceeded")

// LimitedTracker halts a run after MaxTicks coroutine resumes. The budget
// spans the Loop's lifetime, not a single run.
type LimitedTracker struct {
	MaxTicks uint64
	used     uint64
}

func (t *LimitedTracker) Tick() error {
	t.used++
	if t.MaxTicks > 0 && t.used > t.MaxTicks {
		return ErrTickLimit
	}
	return nil
}

// Used reports how many resumes the tracker has observed.
func (t *LimitedTracker) Used() uint64 { return t.used }
