package runtime

import (
	"github.com/minipy-lang/minipy/pkg/exceptions"
)

// CoState is the lifecycle of a coroutine handle.
type CoState int

const (
	CoCreated CoState = iota
	CoRunning
	CoSuspended
	CoDone
	CoFailed
)

func (s CoState) String() string {
	switch s {
	case CoCreated:
		return "created"
	case CoRunning:
		return "running"
	case CoSuspended:
		return "suspended"
	case CoDone:
		return "done"
	case CoFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// StepKind discriminates what a coroutine body reported back to the
// scheduler on one resume.
type StepKind int

const (
	// StepDone ends the coroutine with a completion value.
	StepDone StepKind = iota
	// StepAwait suspends until one nested coroutine is terminal.
	StepAwait
	// StepAwaitAll suspends until every member of a group is terminal,
	// resuming with their results in submission order.
	StepAwaitAll
)

// Step is the outcome of one body resume. Exactly one of Value, Await or
// Group is meaningful, selected by Kind.
type Step struct {
	Kind  StepKind
	Value Value
	Await *CoroutineValue
	Group []*CoroutineValue
}

// Done completes the coroutine with v (None when nil).
func Done(v Value) Step {
	if v == nil {
		v = NoneValue{}
	}
	return Step{Kind: StepDone, Value: v}
}

// Await suspends on a single nested coroutine.
func Await(h *CoroutineValue) Step {
	return Step{Kind: StepAwait, Await: h}
}

// AwaitAll suspends on a whole group of coroutines at once.
func AwaitAll(hs ...*CoroutineValue) Step {
	return Step{Kind: StepAwaitAll, Group: hs}
}

// Frame is the captured continuation state of a coroutine: a resume program
// counter plus the locals live across suspension points. Bodies dispatch on
// PC to return to the statement after the await they suspended at.
type Frame struct {
	PC     int
	Locals map[string]Value
}

// Set stores a local binding, allocating the map lazily.
func (f *Frame) Set(name string, v Value) {
	if f.Locals == nil {
		f.Locals = make(map[string]Value)
	}
	f.Locals[name] = v
}

// Get returns a local binding, or None when absent.
func (f *Frame) Get(name string) Value {
	if v, ok := f.Locals[name]; ok {
		return v
	}
	return NoneValue{}
}

// Body advances a coroutine from its last suspension point. resumed carries
// the value produced by whatever the coroutine awaited (nil on first entry).
// Returning an error fails the coroutine; the scheduler never resumes it
// again.
type Body func(fr *Frame, resumed Value) (Step, error)

// CoroutineValue is a suspendable unit of work modelled as an explicit state
// machine: state tag, captured frame, and a resume entry point. It is
// single-owner — only the scheduler slot currently driving it may resume it.
type CoroutineValue struct {
	name    string
	site    *exceptions.CallFrame
	state   CoState
	frame   Frame
	body    Body
	result  Value
	failure *exceptions.Raise
}

// NewCoroutine wraps a body into a fresh, not-yet-started handle. name is
// the scope name used in diagnostic tracebacks.
func NewCoroutine(name string, body Body) *CoroutineValue {
	return &CoroutineValue{name: name, body: body}
}

// WithSite attaches the call-site frame recorded for this coroutine's code;
// failures propagating through the handle pick it up in their frame chain.
func (co *CoroutineValue) WithSite(frame exceptions.CallFrame) *CoroutineValue {
	co.site = &frame
	return co
}

func (co *CoroutineValue) Kind() Kind       { return KindCoroutine }
func (co *CoroutineValue) TypeName() string { return "coroutine" }
func (co *CoroutineValue) Repr() string     { return "<coroutine object " + co.name + ">" }

func (co *CoroutineValue) Name() string   { return co.name }
func (co *CoroutineValue) State() CoState { return co.state }

// Result is the completion value; only meaningful once State is CoDone.
func (co *CoroutineValue) Result() Value { return co.result }

// Failure is the terminal failure record; only meaningful once CoFailed.
func (co *CoroutineValue) Failure() *exceptions.Raise { return co.failure }

// Resume drives the coroutine from creation or from its last suspension
// point. Resuming a running or terminal handle is a usage error: handles are
// single-owner and one-shot.
func (co *CoroutineValue) Resume(resumed Value) (Step, error) {
	switch co.state {
	case CoCreated, CoSuspended:
	default:
		return Step{}, exceptions.NewRaise(
			exceptions.New(exceptions.RuntimeError, "cannot reuse already awaited coroutine"))
	}
	co.state = CoRunning
	step, err := co.body(&co.frame, resumed)
	if err != nil {
		return Step{}, co.FailWith(err)
	}
	switch step.Kind {
	case StepDone:
		if step.Value == nil {
			step.Value = NoneValue{}
		}
		co.state = CoDone
		co.result = step.Value
	default:
		co.state = CoSuspended
	}
	return step, nil
}

// FailWith marks the coroutine failed with a failure propagating up from an
// awaited computation (or from its own body), enriching the record with this
// coroutine's call site when one is known. The returned record is what the
// next owner up the chain should propagate.
func (co *CoroutineValue) FailWith(err error) *exceptions.Raise {
	r, ok := exceptions.AsRaise(err)
	if !ok {
		r = exceptions.NewRaise(exceptions.New(exceptions.RuntimeError, err.Error()))
	}
	if co.site != nil {
		r = r.WithFrame(*co.site)
	}
	co.state = CoFailed
	co.failure = r
	return r
}
