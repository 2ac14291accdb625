package sched

import (
	"github.com/minipy-lang/minipy/pkg/exceptions"
	"github.com/minipy-lang/minipy/pkg/runtime"
)

// TaskState is the scheduler-side lifecycle of one submitted coroutine.
type TaskState int

const (
	TaskPending TaskState = iota
	TaskRunning
	TaskSuspended
	TaskCompleted
	TaskFailed
)

func (s TaskState) String() string {
	switch s {
	case TaskPending:
		return "pending"
	case TaskRunning:
		return "running"
	case TaskSuspended:
		return "suspended"
	case TaskCompleted:
		return "completed"
	case TaskFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Task binds one coroutine handle to a submission index and tracks the chain
// of handles it is currently suspended inside. stack grows as awaits nest;
// the innermost activation is the last element. resume carries the value to
// feed the next Resume call.
type Task struct {
	index   int
	state   TaskState
	stack   []*runtime.CoroutineValue
	resume  runtime.Value
	group   *joinGroup
	result  runtime.Value
	failure *exceptions.Raise
}

func newTask(index int, co *runtime.CoroutineValue) *Task {
	return &Task{index: index, stack: []*runtime.CoroutineValue{co}}
}

func (t *Task) Index() int       { return t.index }
func (t *Task) State() TaskState { return t.state }

func (t *Task) terminal() bool {
	return t.state == TaskCompleted || t.state == TaskFailed
}

func (t *Task) complete(v runtime.Value) {
	t.stack = nil
	t.state = TaskCompleted
	t.result = v
}

// fail unwinds the task's remaining activations with the propagating record.
// Handles that already recorded the failure (the one whose body raised) are
// skipped so the record is enriched exactly once per await boundary.
func (t *Task) fail(err error) {
	r, ok := exceptions.AsRaise(err)
	if !ok {
		r = exceptions.NewRaise(exceptions.New(exceptions.RuntimeError, err.Error()))
	}
	for i := len(t.stack) - 1; i >= 0; i-- {
		if t.stack[i].State() != runtime.CoFailed {
			r = t.stack[i].FailWith(r)
		}
	}
	t.stack = nil
	t.group = nil
	t.state = TaskFailed
	t.failure = r
}
