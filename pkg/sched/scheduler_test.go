package sched

import (
	"strings"
	"testing"

	"go.uber.org/goleak"

	"github.com/minipy-lang/minipy/pkg/exceptions"
	"github.com/minipy-lang/minipy/pkg/runtime"
)

// The scheduler is single-threaded and cooperative; nothing it does may
// leave a goroutine behind.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func constCo(name string, v runtime.Value) *runtime.CoroutineValue {
	return runtime.NewCoroutine(name, func(*runtime.Frame, runtime.Value) (runtime.Step, error) {
		return runtime.Done(v), nil
	})
}

// pausingCo completes with v after suspending `pauses` extra times, each on
// a trivial nested coroutine. completionLog, when non-nil, records the name
// at completion time so tests can observe actual completion order.
func pausingCo(name string, v runtime.Value, pauses int, completionLog *[]string) *runtime.CoroutineValue {
	return runtime.NewCoroutine(name, func(fr *runtime.Frame, _ runtime.Value) (runtime.Step, error) {
		if fr.PC < pauses {
			fr.PC++
			return runtime.Await(constCo("pause", runtime.NoneValue{})), nil
		}
		if completionLog != nil {
			*completionLog = append(*completionLog, name)
		}
		return runtime.Done(v), nil
	})
}

func TestRunSimple(t *testing.T) {
	got, err := New().Run(constCo("simple", runtime.Int(42)))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got.(runtime.IntValue).Val.Int64() != 42 {
		t.Fatalf("Run = %s, want 42", got.Repr())
	}
}

func TestRunAdd(t *testing.T) {
	add := func(a, b int64) *runtime.CoroutineValue {
		return runtime.NewCoroutine("add", func(fr *runtime.Frame, _ runtime.Value) (runtime.Step, error) {
			fr.Set("a", runtime.Int(a))
			fr.Set("b", runtime.Int(b))
			lhs := fr.Get("a").(runtime.IntValue).Val.Int64()
			rhs := fr.Get("b").(runtime.IntValue).Val.Int64()
			return runtime.Done(runtime.Int(lhs + rhs)), nil
		})
	}
	got, err := New().Run(add(10, 20))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got.(runtime.IntValue).Val.Int64() != 30 {
		t.Fatalf("Run = %s, want 30", got.Repr())
	}
}

func TestRunNestedAwaitPreservesValues(t *testing.T) {
	outer := runtime.NewCoroutine("outer", func(fr *runtime.Frame, resumed runtime.Value) (runtime.Step, error) {
		switch fr.PC {
		case 0:
			fr.PC = 1
			return runtime.Await(constCo("inner", runtime.Str("hello"))), nil
		default:
			return runtime.Done(runtime.Str(resumed.(runtime.StrValue).Val + " world")), nil
		}
	})
	got, err := New().Run(outer)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got.(runtime.StrValue).Val != "hello world" {
		t.Fatalf("Run = %s, want 'hello world'", got.Repr())
	}
}

func TestGatherOrdersBySubmissionNotCompletion(t *testing.T) {
	var completions []string
	// Inverted suspension depths: the last-submitted member completes first.
	group := Gather(
		pausingCo("double1", runtime.Int(2), 4, &completions),
		pausingCo("double2", runtime.Int(4), 2, &completions),
		pausingCo("double3", runtime.Int(6), 0, &completions),
	)
	wrapper := runtime.NewCoroutine("run_gather", func(fr *runtime.Frame, resumed runtime.Value) (runtime.Step, error) {
		switch fr.PC {
		case 0:
			fr.PC = 1
			return runtime.Await(group), nil
		default:
			return runtime.Done(resumed), nil
		}
	})

	got, err := New().Run(wrapper)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if repr := got.Repr(); repr != "[2, 4, 6]" {
		t.Fatalf("gather result = %s, want [2, 4, 6]", repr)
	}
	if len(completions) != 3 {
		t.Fatalf("completions = %v", completions)
	}
	if completions[0] != "double3" {
		t.Fatalf("expected out-of-submission-order completion, got %v", completions)
	}
}

func TestSequentialRunsShareNoState(t *testing.T) {
	loop := New()
	for i := 0; i < 3; i++ {
		got, err := loop.Run(constCo("simple", runtime.Int(int64(i))))
		if err != nil {
			t.Fatalf("run %d returned error: %v", i, err)
		}
		if got.(runtime.IntValue).Val.Int64() != int64(i) {
			t.Fatalf("run %d = %s", i, got.Repr())
		}
	}
}

func TestNestedRunFails(t *testing.T) {
	loop := New()
	reentrant := runtime.NewCoroutine("reentrant", func(*runtime.Frame, runtime.Value) (runtime.Step, error) {
		if _, err := loop.Run(constCo("inner", runtime.Int(1))); err != nil {
			return runtime.Step{}, err
		}
		return runtime.Done(runtime.NoneValue{}), nil
	})
	_, err := loop.Run(reentrant)
	if err == nil {
		t.Fatalf("expected nested run failure")
	}
	if !exceptions.IsNestedRun(err) {
		t.Fatalf("nested run error = %v", err)
	}

	// The failed run must not leak an active context.
	if got, err := loop.Run(constCo("after", runtime.Int(5))); err != nil {
		t.Fatalf("run after nested failure: %v", err)
	} else if got.(runtime.IntValue).Val.Int64() != 5 {
		t.Fatalf("run after nested failure = %s", got.Repr())
	}
}

func TestJoinAllOutsideRun(t *testing.T) {
	_, err := New().JoinAll(constCo("a", runtime.Int(1)))
	if err == nil {
		t.Fatalf("expected failure outside an active run")
	}
	raise, ok := exceptions.AsRaise(err)
	if !ok || raise.Exc.Kind != exceptions.RuntimeError {
		t.Fatalf("error = %v, want RuntimeError", err)
	}
	if !strings.Contains(raise.Exc.Message, "no running event loop") {
		t.Fatalf("message = %q", raise.Exc.Message)
	}
}

func TestJoinAllInsideRun(t *testing.T) {
	loop := New()
	body := runtime.NewCoroutine("fanin", func(*runtime.Frame, runtime.Value) (runtime.Step, error) {
		values, err := loop.JoinAll(
			pausingCo("a", runtime.Str("a"), 2, nil),
			pausingCo("b", runtime.Str("b"), 0, nil),
		)
		if err != nil {
			return runtime.Step{}, err
		}
		return runtime.Done(runtime.List(values...)), nil
	})
	got, err := loop.Run(body)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if repr := got.Repr(); repr != "['a', 'b']" {
		t.Fatalf("JoinAll = %s, want ['a', 'b']", repr)
	}
}

func TestGatherFailureSelectsLowestIndex(t *testing.T) {
	failing := func(name, message string, pauses int) *runtime.CoroutineValue {
		return runtime.NewCoroutine(name, func(fr *runtime.Frame, _ runtime.Value) (runtime.Step, error) {
			if fr.PC < pauses {
				fr.PC++
				return runtime.Await(constCo("pause", runtime.NoneValue{})), nil
			}
			return runtime.Step{}, exceptions.NewRaise(exceptions.New(exceptions.ValueError, message))
		})
	}
	// Index 2 fails immediately, index 1 fails much later; index 1 must
	// still be the reported failure because selection is by submission
	// index, not failure time.
	group := Gather(
		constCo("ok", runtime.Int(0)),
		failing("late", "late failure", 5),
		failing("early", "early failure", 0),
	)
	_, err := New().Run(group)
	if err == nil {
		t.Fatalf("expected propagated failure")
	}
	raise, ok := exceptions.AsRaise(err)
	if !ok {
		t.Fatalf("error = %v, want failure record", err)
	}
	if raise.Exc.Message != "late failure" {
		t.Fatalf("propagated %q, want lowest-index 'late failure'", raise.Exc.Message)
	}
}

func TestFailurePropagatesUnchangedThroughAwaits(t *testing.T) {
	siteInner := exceptions.CallFrame{File: "prog.py", Line: 3, Name: "inner", SourceLine: "map(abs, 42)", ColStart: 0, ColEnd: 12}
	siteOuter := exceptions.CallFrame{File: "prog.py", Line: 7, Name: "<module>", SourceLine: "inner()", ColStart: 0, ColEnd: 7}

	inner := runtime.NewCoroutine("inner", func(*runtime.Frame, runtime.Value) (runtime.Step, error) {
		return runtime.Step{}, exceptions.NewRaise(exceptions.NotIterable("int"), siteInner)
	})
	outer := runtime.NewCoroutine("outer", func(fr *runtime.Frame, _ runtime.Value) (runtime.Step, error) {
		fr.PC = 1
		return runtime.Await(inner), nil
	}).WithSite(siteOuter)

	_, err := New().Run(outer)
	if err == nil {
		t.Fatalf("expected propagated failure")
	}
	raise, _ := exceptions.AsRaise(err)
	if raise.Exc.Kind != exceptions.TypeError || raise.Exc.Message != "'int' object is not iterable" {
		t.Fatalf("exception changed during propagation: %v", raise.Exc)
	}
	if len(raise.Frames) != 2 {
		t.Fatalf("frames = %d, want 2 (outer site + raising site)", len(raise.Frames))
	}
	if raise.Frames[0].Name != "<module>" || raise.Frames[1].Name != "inner" {
		t.Fatalf("frame order wrong: %#v", raise.Frames)
	}
}

func TestTrackerLimitHaltsRunawayRun(t *testing.T) {
	forever := runtime.NewCoroutine("forever", func(fr *runtime.Frame, _ runtime.Value) (runtime.Step, error) {
		return runtime.Await(constCo("pause", runtime.NoneValue{})), nil
	})
	loop := New(WithTracker(&LimitedTracker{MaxTicks: 50}))
	_, err := loop.Run(forever)
	if err == nil {
		t.Fatalf("expected tick limit failure")
	}
	raise, ok := exceptions.AsRaise(err)
	if !ok || raise.Exc.Kind != exceptions.RuntimeError {
		t.Fatalf("error = %v, want RuntimeError", err)
	}
	if !strings.Contains(raise.Exc.Message, "tick limit exceeded") {
		t.Fatalf("message = %q", raise.Exc.Message)
	}

	// Scheduler state is not corrupted: the loop accepts a fresh run.
	loop2 := New()
	if _, err := loop2.Run(constCo("after", runtime.Int(1))); err != nil {
		t.Fatalf("fresh run after halt: %v", err)
	}
}

func TestTaskStateStrings(t *testing.T) {
	states := map[TaskState]string{
		TaskPending:   "pending",
		TaskRunning:   "running",
		TaskSuspended: "suspended",
		TaskCompleted: "completed",
		TaskFailed:    "failed",
	}
	for state, want := range states {
		if got := state.String(); got != want {
			t.Fatalf("TaskState(%d) = %q, want %q", state, got, want)
		}
	}
}
