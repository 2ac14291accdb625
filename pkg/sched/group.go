package sched

import (
	"github.com/minipy-lang/minipy/pkg/runtime"
)

// joinGroup is an ordered set of tasks submitted together. Membership is
// fixed at construction; results are reported by submission index.
type joinGroup struct {
	tasks []*Task
}

func newJoinGroup(cos []*runtime.CoroutineValue) *joinGroup {
	tasks := make([]*Task, len(cos))
	for i, co := range cos {
		tasks[i] = newTask(i, co)
	}
	return &joinGroup{tasks: tasks}
}

func (g *joinGroup) quiescent() bool {
	for _, t := range g.tasks {
		if !t.terminal() {
			return false
		}
	}
	return true
}

// resolve reads out a quiescent group. If any member failed, the failure of
// the member with the lowest submission index wins regardless of which
// member failed first in time; sibling outcomes are discarded. Otherwise
// results come back indexed by submission order, never completion order.
func (g *joinGroup) resolve() ([]runtime.Value, error) {
	for _, t := range g.tasks {
		if t.state == TaskFailed {
			return nil, t.failure
		}
	}
	values := make([]runtime.Value, len(g.tasks))
	for i, t := range g.tasks {
		values[i] = t.result
	}
	return values, nil
}

// Gather wraps a group of coroutines into a single awaitable coroutine that
// completes with a list of their results in submission order.
func Gather(children ...*runtime.CoroutineValue) *runtime.CoroutineValue {
	return runtime.NewCoroutine("gather", func(fr *runtime.Frame, resumed runtime.Value) (runtime.Step, error) {
		switch fr.PC {
		case 0:
			fr.PC = 1
			return runtime.AwaitAll(children...), nil
		default:
			return runtime.Done(resumed), nil
		}
	})
}
