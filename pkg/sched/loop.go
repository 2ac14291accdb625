// Package sched implements the cooperative, single-threaded scheduler that
// drives coroutine handles to completion: run-to-completion of a single
// coroutine and ordered fan-in over a group of them. Suspension happens only
// at explicit await points; all other code runs without yielding.
package sched

import (
	"sync"

	"github.com/minipy-lang/minipy/pkg/exceptions"
	"github.com/minipy-lang/minipy/pkg/runtime"
)

// Loop owns scheduling for one logical thread of control. At most one run
// may be active on a Loop at a time; starting another while one is active is
// a usage error, never silent nesting.
type Loop struct {
	mu      sync.Mutex
	tracker Tracker
	active  bool
}

// Option configures a Loop.
type Option func(*Loop)

// WithTracker installs a resource tracker consulted once per coroutine
// resume. The default never limits.
func WithTracker(t Tracker) Option {
	return func(l *Loop) { l.tracker = t }
}

func New(opts ...Option) *Loop {
	l := &Loop{tracker: NoLimitTracker{}}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run drives co to a terminal state and returns its completion value, or
// propagates its failure record unchanged. The scheduler context is torn
// down unconditionally on exit, so sequential runs on the same Loop work.
func (l *Loop) Run(co *runtime.CoroutineValue) (runtime.Value, error) {
	if !l.begin() {
		return nil, exceptions.NestedRun()
	}
	defer l.end()

	task := newTask(0, co)
	for !task.terminal() {
		if err := l.tick(task); err != nil {
			return nil, asRaise(err)
		}
	}
	if task.state == TaskFailed {
		return nil, task.failure
	}
	return task.result, nil
}

// JoinAll runs a group of coroutines with interleaved progress and returns
// their results in submission order. It is only usable while a run is
// active on this Loop (bodies call it synchronously from inside Run).
func (l *Loop) JoinAll(cos ...*runtime.CoroutineValue) ([]runtime.Value, error) {
	if !l.isActive() {
		return nil, exceptions.NewRaise(exceptions.New(exceptions.RuntimeError, "no running event loop"))
	}
	g := newJoinGroup(cos)
	for !g.quiescent() {
		if err := l.tickGroupMembers(g); err != nil {
			return nil, asRaise(err)
		}
	}
	return g.resolve()
}

func (l *Loop) begin() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.active {
		return false
	}
	l.active = true
	return true
}

func (l *Loop) end() {
	l.mu.Lock()
	l.active = false
	l.mu.Unlock()
}

func (l *Loop) isActive() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// tick makes one unit of progress on a task: a single resume of its
// innermost activation, or one round-robin pass over a join group it is
// suspended on. Failures become the task's terminal state; only tracker
// exhaustion is returned as an error.
func (l *Loop) tick(t *Task) error {
	if t.terminal() {
		return nil
	}
	if t.group != nil {
		return l.tickGroup(t)
	}
	if err := l.tracker.Tick(); err != nil {
		return err
	}

	co := t.stack[len(t.stack)-1]
	resume := t.resume
	t.resume = nil
	t.state = TaskRunning

	step, err := co.Resume(resume)
	if err != nil {
		t.fail(err)
		return nil
	}
	switch step.Kind {
	case runtime.StepDone:
		t.stack = t.stack[:len(t.stack)-1]
		if len(t.stack) == 0 {
			t.complete(co.Result())
		} else {
			t.resume = co.Result()
			t.state = TaskSuspended
		}
	case runtime.StepAwait:
		t.stack = append(t.stack, step.Await)
		t.state = TaskSuspended
	case runtime.StepAwaitAll:
		t.group = newJoinGroup(step.Group)
		t.state = TaskSuspended
	}
	return nil
}

func (l *Loop) tickGroup(t *Task) error {
	g := t.group
	if err := l.tickGroupMembers(g); err != nil {
		return err
	}
	if !g.quiescent() {
		return nil
	}
	values, err := g.resolve()
	t.group = nil
	if err != nil {
		t.fail(err)
		return nil
	}
	t.resume = runtime.List(values...)
	t.state = TaskSuspended
	return nil
}

// tickGroupMembers gives every non-terminal member exactly one tick, in
// submission order. Result correctness never depends on this order; it only
// has to be fair enough that every member keeps progressing.
func (l *Loop) tickGroupMembers(g *joinGroup) error {
	for _, member := range g.tasks {
		if member.terminal() {
			continue
		}
		if err := l.tick(member); err != nil {
			return err
		}
	}
	return nil
}

func asRaise(err error) error {
	if _, ok := exceptions.AsRaise(err); ok {
		return err
	}
	return exceptions.NewRaise(exceptions.New(exceptions.RuntimeError, err.Error()))
}
