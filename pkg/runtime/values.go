package runtime

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Kind identifies the runtime value category.
type Kind int

const (
	KindNone Kind = iota
	KindBool
	KindInt
	KindFloat
	KindStr
	KindList
	KindTuple
	KindRange
	KindBuiltin
	KindCoroutine
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindStr:
		return "str"
	case KindList:
		return "list"
	case KindTuple:
		return "tuple"
	case KindRange:
		return "range"
	case KindBuiltin:
		return "builtin"
	case KindCoroutine:
		return "coroutine"
	default:
		return fmt.Sprintf("unknown_kind_%d", int(k))
	}
}

// Value is the shared behaviour for all runtime values. TypeName is the
// user-facing type name used in diagnostics, Repr the user-facing literal
// rendering.
type Value interface {
	Kind() Kind
	TypeName() string
	Repr() string
}

//-----------------------------------------------------------------------------
// Scalars
//-----------------------------------------------------------------------------

type NoneValue struct{}

func (NoneValue) Kind() Kind       { return KindNone }
func (NoneValue) TypeName() string { return "NoneType" }
func (NoneValue) Repr() string     { return "None" }

type BoolValue struct {
	Val bool
}

func (v BoolValue) Kind() Kind       { return KindBool }
func (v BoolValue) TypeName() string { return "bool" }

func (v BoolValue) Repr() string {
	if v.Val {
		return "True"
	}
	return "False"
}

// IntValue carries arbitrary-precision integers so overflow semantics match
// the source language rather than the host.
type IntValue struct {
	Val *big.Int
}

func Int(v int64) IntValue {
	return IntValue{Val: big.NewInt(v)}
}

func (v IntValue) Kind() Kind       { return KindInt }
func (v IntValue) TypeName() string { return "int" }

func (v IntValue) Repr() string {
	if v.Val == nil {
		return "0"
	}
	return v.Val.String()
}

type FloatValue struct {
	Val float64
}

func (v FloatValue) Kind() Kind       { return KindFloat }
func (v FloatValue) TypeName() string { return "float" }

func (v FloatValue) Repr() string {
	s := strconv.FormatFloat(v.Val, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

type StrValue struct {
	Val string
}

func Str(s string) StrValue { return StrValue{Val: s} }

func (v StrValue) Kind() Kind       { return KindStr }
func (v StrValue) TypeName() string { return "str" }
func (v StrValue) Repr() string     { return "'" + strings.ReplaceAll(v.Val, "'", "\\'") + "'" }

//-----------------------------------------------------------------------------
// Collections and ranges
//-----------------------------------------------------------------------------

type ListValue struct {
	Elements []Value
}

func List(elements ...Value) *ListValue {
	return &ListValue{Elements: elements}
}

func (v *ListValue) Kind() Kind       { return KindList }
func (v *ListValue) TypeName() string { return "list" }

func (v *ListValue) Repr() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, el := range v.Elements {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(el.Repr())
	}
	b.WriteByte(']')
	return b.String()
}

type TupleValue struct {
	Elements []Value
}

func (v *TupleValue) Kind() Kind       { return KindTuple }
func (v *TupleValue) TypeName() string { return "tuple" }

func (v *TupleValue) Repr() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, el := range v.Elements {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(el.Repr())
	}
	if len(v.Elements) == 1 {
		b.WriteByte(',')
	}
	b.WriteByte(')')
	return b.String()
}

// RangeValue matches range(start, stop, step) semantics; step is never zero.
type RangeValue struct {
	Start int64
	Stop  int64
	Step  int64
}

func Range(start, stop, step int64) RangeValue {
	if step == 0 {
		step = 1
	}
	return RangeValue{Start: start, Stop: stop, Step: step}
}

func (v RangeValue) Kind() Kind       { return KindRange }
func (v RangeValue) TypeName() string { return "range" }

func (v RangeValue) Repr() string {
	if v.Step == 1 {
		return fmt.Sprintf("range(%d, %d)", v.Start, v.Stop)
	}
	return fmt.Sprintf("range(%d, %d, %d)", v.Start, v.Stop, v.Step)
}

//-----------------------------------------------------------------------------
// Builtin functions
//-----------------------------------------------------------------------------

// BuiltinFunc is the host implementation of a builtin. It receives the
// already-validated positional arguments.
type BuiltinFunc func(args []Value) (Value, error)

type BuiltinValue struct {
	Name string
	Impl BuiltinFunc
}

func (v BuiltinValue) Kind() Kind       { return KindBuiltin }
func (v BuiltinValue) TypeName() string { return "builtin_function_or_method" }
func (v BuiltinValue) Repr() string     { return "<built-in function " + v.Name + ">" }

// Call satisfies the Callable capability.
func (v BuiltinValue) Call(args []Value) (Value, error) {
	return v.Impl(args)
}
