package driver

import (
	"fmt"

	"github.com/minipy-lang/minipy/pkg/builtins"
	"github.com/minipy-lang/minipy/pkg/exceptions"
	"github.com/minipy-lang/minipy/pkg/runtime"
	"github.com/minipy-lang/minipy/pkg/sched"
)

// Program is a registered sample program: a host-constructed unit of work
// standing in for compiled script output, since the language frontend lives
// outside this engine. Run returns the completion value or the failure
// record that escaped the outermost boundary.
type Program struct {
	Name string
	Doc  string
	Run  func(w builtins.PrintWriter) (runtime.Value, error)
}

// Programs returns the registry of sample programs, keyed by name, with no
// scheduling limits.
func Programs() map[string]*Program {
	return ProgramsWithLimits(0)
}

// ProgramsWithLimits builds the registry with a per-program tick budget
// (0 means unlimited). The asyncio_* family mirrors the scheduler
// conformance scripts; map_* mirrors the builtin argument-validation ones.
func ProgramsWithLimits(maxTicks uint64) map[string]*Program {
	newLoop := func() *sched.Loop {
		if maxTicks > 0 {
			return sched.New(sched.WithTracker(&sched.LimitedTracker{MaxTicks: maxTicks}))
		}
		return sched.New()
	}
	registry := builtins.NewRegistry()
	programs := make(map[string]*Program)
	add := func(p *Program) {
		programs[p.Name] = p
	}

	add(&Program{
		Name: "asyncio_run_simple",
		Doc:  "run a coroutine with no awaits to completion",
		Run: func(builtins.PrintWriter) (runtime.Value, error) {
			return newLoop().Run(constCoroutine("simple", runtime.Int(42)))
		},
	})

	add(&Program{
		Name: "asyncio_run_add",
		Doc:  "run a coroutine computing a + b over its arguments",
		Run: func(builtins.PrintWriter) (runtime.Value, error) {
			return newLoop().Run(addCoroutine(10, 20))
		},
	})

	add(&Program{
		Name: "asyncio_run_nested",
		Doc:  "nested awaits preserve values through the chain",
		Run: func(builtins.PrintWriter) (runtime.Value, error) {
			return newLoop().Run(outerCoroutine())
		},
	})

	add(&Program{
		Name: "asyncio_run_gather",
		Doc:  "gather returns results in submission order",
		Run: func(builtins.PrintWriter) (runtime.Value, error) {
			return newLoop().Run(gatherCoroutine())
		},
	})

	add(&Program{
		Name: "map_abs",
		Doc:  "map a builtin over a list",
		Run: func(w builtins.PrintWriter) (runtime.Value, error) {
			absVal, _ := registry.Value("abs")
			ctx := &builtins.CallContext{Writer: w}
			return registry.Call("map", ctx, []runtime.Value{
				absVal,
				runtime.List(runtime.Int(-1), runtime.Int(0), runtime.Int(1), runtime.Int(2)),
			})
		},
	})

	add(&Program{
		Name: "map_not_iterable",
		Doc:  "map with a non-iterable second argument raises at the call site",
		Run: func(w builtins.PrintWriter) (runtime.Value, error) {
			absVal, _ := registry.Value("abs")
			ctx := &builtins.CallContext{
				Writer: w,
				Site: exceptions.CallFrame{
					File:       "builtin__map_not_iterable.py",
					Line:       2,
					Name:       "<module>",
					SourceLine: "map(abs, 42)",
					ColStart:   0,
					ColEnd:     12,
				},
			}
			return registry.Call("map", ctx, []runtime.Value{absVal, runtime.Int(42)})
		},
	})

	add(&Program{
		Name: "filter_sum",
		Doc:  "filter odd values out of a range and sum the rest",
		Run: func(w builtins.PrintWriter) (runtime.Value, error) {
			ctx := &builtins.CallContext{Writer: w}
			evens, err := registry.Call("filter", ctx, []runtime.Value{
				runtime.BuiltinValue{Name: "is_even", Impl: func(args []runtime.Value) (runtime.Value, error) {
					n := args[0].(runtime.IntValue)
					return runtime.BoolValue{Val: n.Val.Bit(0) == 0}, nil
				}},
				runtime.Range(0, 10, 1),
			})
			if err != nil {
				return nil, err
			}
			return registry.Call("sum", ctx, []runtime.Value{evens})
		},
	})

	return programs
}

// constCoroutine completes immediately with v.
func constCoroutine(name string, v runtime.Value) *runtime.CoroutineValue {
	return runtime.NewCoroutine(name, func(*runtime.Frame, runtime.Value) (runtime.Step, error) {
		return runtime.Done(v), nil
	})
}

// addCoroutine computes a + b, exercising argument capture in locals.
func addCoroutine(a, b int64) *runtime.CoroutineValue {
	return runtime.NewCoroutine("add", func(fr *runtime.Frame, _ runtime.Value) (runtime.Step, error) {
		fr.Set("a", runtime.Int(a))
		fr.Set("b", runtime.Int(b))
		lhs := fr.Get("a").(runtime.IntValue)
		rhs := fr.Get("b").(runtime.IntValue)
		return runtime.Done(runtime.Int(lhs.Val.Int64() + rhs.Val.Int64())), nil
	})
}

// outerCoroutine awaits inner and appends to its result.
func outerCoroutine() *runtime.CoroutineValue {
	return runtime.NewCoroutine("outer", func(fr *runtime.Frame, resumed runtime.Value) (runtime.Step, error) {
		switch fr.PC {
		case 0:
			fr.PC = 1
			return runtime.Await(constCoroutine("inner", runtime.Str("hello"))), nil
		default:
			val, ok := resumed.(runtime.StrValue)
			if !ok {
				return runtime.Step{}, fmt.Errorf("await produced %s, want str", resumed.TypeName())
			}
			return runtime.Done(runtime.Str(val.Val + " world")), nil
		}
	})
}

// doubleCoroutine returns x*2 after suspending depth extra times, so members
// of a gather group finish out of submission order.
func doubleCoroutine(x int64, depth int) *runtime.CoroutineValue {
	return runtime.NewCoroutine("double", func(fr *runtime.Frame, _ runtime.Value) (runtime.Step, error) {
		if fr.PC < depth {
			fr.PC++
			return runtime.Await(constCoroutine("pause", runtime.NoneValue{})), nil
		}
		return runtime.Done(runtime.Int(x * 2)), nil
	})
}

// gatherCoroutine awaits a gather of double(1..3) with inverted suspension
// depths and completes with the collected list.
func gatherCoroutine() *runtime.CoroutineValue {
	group := sched.Gather(
		doubleCoroutine(1, 4),
		doubleCoroutine(2, 2),
		doubleCoroutine(3, 0),
	)
	return runtime.NewCoroutine("run_gather", func(fr *runtime.Frame, resumed runtime.Value) (runtime.Step, error) {
		switch fr.PC {
		case 0:
			fr.PC = 1
			return runtime.Await(group), nil
		default:
			return runtime.Done(resumed), nil
		}
	})
}
