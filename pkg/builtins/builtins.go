// Package builtins holds the builtin-function catalog and the argument
// validator that guards it. Every operation checks its declared argument
// shape with capability queries before any part of the operation executes;
// a mismatch raises immediately with the call-site frame attached.
package builtins

import (
	"math/big"
	"strings"

	"github.com/minipy-lang/minipy/pkg/exceptions"
	"github.com/minipy-lang/minipy/pkg/runtime"
)

// CallContext carries per-invocation state: where print output goes and the
// call-site snapshot used when validation fails.
type CallContext struct {
	Writer PrintWriter
	Site   exceptions.CallFrame
}

func (ctx *CallContext) writer() PrintWriter {
	if ctx == nil || ctx.Writer == nil {
		return NoPrint{}
	}
	return ctx.Writer
}

// raiseAt promotes an exception into a failure record anchored at the
// invocation's call site.
func (ctx *CallContext) raiseAt(exc exceptions.Exception) error {
	if ctx == nil || ctx.Site == (exceptions.CallFrame{}) {
		return exceptions.NewRaise(exc)
	}
	return exceptions.NewRaise(exc, ctx.Site)
}

// Impl is the body of a builtin, invoked with unvalidated positional
// arguments; each body performs its own shape validation first.
type Impl func(ctx *CallContext, args []runtime.Value) (runtime.Value, error)

type Builtin struct {
	Name string
	Impl Impl
}

// Registry maps builtin names to implementations.
type Registry struct {
	byName map[string]*Builtin
}

// NewRegistry returns a registry preloaded with the standard catalog.
func NewRegistry() *Registry {
	r := &Registry{byName: make(map[string]*Builtin)}
	for _, b := range []*Builtin{
		{Name: "abs", Impl: builtinAbs},
		{Name: "len", Impl: builtinLen},
		{Name: "map", Impl: builtinMap},
		{Name: "filter", Impl: builtinFilter},
		{Name: "any", Impl: builtinAny},
		{Name: "sum", Impl: builtinSum},
		{Name: "print", Impl: builtinPrint},
	} {
		r.byName[b.Name] = b
	}
	return r
}

func (r *Registry) Lookup(name string) (*Builtin, bool) {
	b, ok := r.byName[name]
	return b, ok
}

// Call invokes a builtin by name with full validation.
func (r *Registry) Call(name string, ctx *CallContext, args []runtime.Value) (runtime.Value, error) {
	b, ok := r.Lookup(name)
	if !ok {
		return nil, ctx.raiseAt(exceptions.Newf(exceptions.NameError, "name '%s' is not defined", name))
	}
	return b.Impl(ctx, args)
}

// Value exposes a builtin as a first-class callable runtime value, so it can
// be passed to higher-order builtins like map and filter.
func (r *Registry) Value(name string) (runtime.BuiltinValue, bool) {
	b, ok := r.Lookup(name)
	if !ok {
		return runtime.BuiltinValue{}, false
	}
	return runtime.BuiltinValue{
		Name: name,
		Impl: func(args []runtime.Value) (runtime.Value, error) {
			return b.Impl(&CallContext{}, args)
		},
	}, true
}

//-----------------------------------------------------------------------------
// Catalog
//-----------------------------------------------------------------------------

func builtinAbs(ctx *CallContext, args []runtime.Value) (runtime.Value, error) {
	if len(args) != 1 {
		return nil, ctx.raiseAt(exceptions.Newf(exceptions.TypeError,
			"abs() takes exactly one argument (%d given)", len(args)))
	}
	switch v := args[0].(type) {
	case runtime.IntValue:
		return runtime.IntValue{Val: new(big.Int).Abs(v.Val)}, nil
	case runtime.FloatValue:
		if v.Val < 0 {
			return runtime.FloatValue{Val: -v.Val}, nil
		}
		return v, nil
	case runtime.BoolValue:
		if v.Val {
			return runtime.Int(1), nil
		}
		return runtime.Int(0), nil
	default:
		return nil, ctx.raiseAt(exceptions.Newf(exceptions.TypeError,
			"bad operand type for abs(): '%s'", args[0].TypeName()))
	}
}

func builtinLen(ctx *CallContext, args []runtime.Value) (runtime.Value, error) {
	if len(args) != 1 {
		return nil, ctx.raiseAt(exceptions.Newf(exceptions.TypeError,
			"len() takes exactly one argument (%d given)", len(args)))
	}
	sized, ok := runtime.AsSized(args[0])
	if !ok {
		return nil, ctx.raiseAt(exceptions.Newf(exceptions.TypeError,
			"object of type '%s' has no len()", args[0].TypeName()))
	}
	return runtime.Int(int64(sized.Len())), nil
}

func builtinMap(ctx *CallContext, args []runtime.Value) (runtime.Value, error) {
	if len(args) < 2 {
		return nil, ctx.raiseAt(exceptions.New(exceptions.TypeError,
			"map() must have at least two arguments."))
	}
	fn, ok := runtime.AsCallable(args[0])
	if !ok {
		return nil, ctx.raiseAt(exceptions.NotCallable(args[0].TypeName()))
	}
	iters := make([]runtime.Iterator, 0, len(args)-1)
	for _, arg := range args[1:] {
		iterable, ok := runtime.AsIterable(arg)
		if !ok {
			return nil, ctx.raiseAt(exceptions.NotIterable(arg.TypeName()))
		}
		iters = append(iters, iterable.Iter())
	}

	var out []runtime.Value
	for {
		items := make([]runtime.Value, 0, len(iters))
		for _, iter := range iters {
			item, more := iter.Next()
			if !more {
				return runtime.List(out...), nil
			}
			items = append(items, item)
		}
		result, err := fn.Call(items)
		if err != nil {
			return nil, err
		}
		out = append(out, result)
	}
}

func builtinFilter(ctx *CallContext, args []runtime.Value) (runtime.Value, error) {
	if len(args) != 2 {
		return nil, ctx.raiseAt(exceptions.Newf(exceptions.TypeError,
			"filter expected 2 arguments, got %d", len(args)))
	}
	var fn runtime.Callable
	if _, isNone := args[0].(runtime.NoneValue); !isNone {
		var ok bool
		fn, ok = runtime.AsCallable(args[0])
		if !ok {
			return nil, ctx.raiseAt(exceptions.NotCallable(args[0].TypeName()))
		}
	}
	iterable, ok := runtime.AsIterable(args[1])
	if !ok {
		return nil, ctx.raiseAt(exceptions.NotIterable(args[1].TypeName()))
	}

	var out []runtime.Value
	iter := iterable.Iter()
	for {
		item, more := iter.Next()
		if !more {
			return runtime.List(out...), nil
		}
		keep := false
		if fn == nil {
			keep = runtime.Truthy(item)
		} else {
			verdict, err := fn.Call([]runtime.Value{item})
			if err != nil {
				return nil, err
			}
			keep = runtime.Truthy(verdict)
		}
		if keep {
			out = append(out, item)
		}
	}
}

func builtinAny(ctx *CallContext, args []runtime.Value) (runtime.Value, error) {
	if len(args) != 1 {
		return nil, ctx.raiseAt(exceptions.Newf(exceptions.TypeError,
			"any() takes exactly one argument (%d given)", len(args)))
	}
	iterable, ok := runtime.AsIterable(args[0])
	if !ok {
		return nil, ctx.raiseAt(exceptions.NotIterable(args[0].TypeName()))
	}
	iter := iterable.Iter()
	for {
		item, more := iter.Next()
		if !more {
			return runtime.BoolValue{Val: false}, nil
		}
		if runtime.Truthy(item) {
			return runtime.BoolValue{Val: true}, nil
		}
	}
}

func builtinSum(ctx *CallContext, args []runtime.Value) (runtime.Value, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, ctx.raiseAt(exceptions.Newf(exceptions.TypeError,
			"sum() takes from 1 to 2 arguments (%d given)", len(args)))
	}
	iterable, ok := runtime.AsIterable(args[0])
	if !ok {
		return nil, ctx.raiseAt(exceptions.NotIterable(args[0].TypeName()))
	}

	intTotal := new(big.Int)
	floatTotal := 0.0
	isFloat := false
	if len(args) == 2 {
		switch start := args[1].(type) {
		case runtime.IntValue:
			intTotal.Set(start.Val)
		case runtime.FloatValue:
			isFloat = true
			floatTotal = start.Val
		default:
			return nil, ctx.raiseAt(exceptions.Newf(exceptions.TypeError,
				"sum() can't sum %s", start.TypeName()))
		}
	}

	iter := iterable.Iter()
	for {
		item, more := iter.Next()
		if !more {
			break
		}
		switch v := item.(type) {
		case runtime.IntValue:
			if isFloat {
				f, _ := new(big.Float).SetInt(v.Val).Float64()
				floatTotal += f
			} else {
				intTotal.Add(intTotal, v.Val)
			}
		case runtime.FloatValue:
			if !isFloat {
				isFloat = true
				f, _ := new(big.Float).SetInt(intTotal).Float64()
				floatTotal = f
			}
			floatTotal += v.Val
		default:
			return nil, ctx.raiseAt(exceptions.Newf(exceptions.TypeError,
				"unsupported operand type(s) for +: 'int' and '%s'", item.TypeName()))
		}
	}
	if isFloat {
		return runtime.FloatValue{Val: floatTotal}, nil
	}
	return runtime.IntValue{Val: intTotal}, nil
}

func builtinPrint(ctx *CallContext, args []runtime.Value) (runtime.Value, error) {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = displayString(arg)
	}
	ctx.writer().Print(strings.Join(parts, " "))
	return runtime.NoneValue{}, nil
}

// displayString follows str() semantics: strings print raw, everything else
// prints its repr.
func displayString(v runtime.Value) string {
	if s, ok := v.(runtime.StrValue); ok {
		return s.Val
	}
	return v.Repr()
}
