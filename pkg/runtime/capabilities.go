package runtime

import "math/big"

// Capability queries. Validators ask whether a value supports a behaviour by
// asserting against these interfaces, never by matching on Kind, so a new
// value type gains the capability simply by implementing the interface.

// Iterable is the capability of producing a fresh iterator over elements.
type Iterable interface {
	Value
	Iter() Iterator
}

// Iterator walks a sequence of values. Next returns false once exhausted.
type Iterator interface {
	Next() (Value, bool)
}

// Callable is the capability of being invoked with positional arguments.
type Callable interface {
	Value
	Call(args []Value) (Value, error)
}

// Sized is the capability of reporting an element count.
type Sized interface {
	Value
	Len() int
}

// AsIterable reports whether v supports iteration.
func AsIterable(v Value) (Iterable, bool) {
	it, ok := v.(Iterable)
	return it, ok
}

// AsCallable reports whether v supports being called.
func AsCallable(v Value) (Callable, bool) {
	c, ok := v.(Callable)
	return c, ok
}

// AsSized reports whether v has a length.
func AsSized(v Value) (Sized, bool) {
	s, ok := v.(Sized)
	return s, ok
}

//-----------------------------------------------------------------------------
// Iterator implementations
//-----------------------------------------------------------------------------

type sliceIterator struct {
	elements []Value
	next     int
}

func (it *sliceIterator) Next() (Value, bool) {
	if it.next >= len(it.elements) {
		return nil, false
	}
	v := it.elements[it.next]
	it.next++
	return v, true
}

func (v *ListValue) Iter() Iterator {
	// Snapshot so mutation during iteration does not shift elements.
	snapshot := make([]Value, len(v.Elements))
	copy(snapshot, v.Elements)
	return &sliceIterator{elements: snapshot}
}

func (v *TupleValue) Iter() Iterator {
	return &sliceIterator{elements: v.Elements}
}

type strIterator struct {
	runes []rune
	next  int
}

func (it *strIterator) Next() (Value, bool) {
	if it.next >= len(it.runes) {
		return nil, false
	}
	ch := it.runes[it.next]
	it.next++
	return StrValue{Val: string(ch)}, true
}

func (v StrValue) Iter() Iterator {
	return &strIterator{runes: []rune(v.Val)}
}

type rangeIterator struct {
	current int64
	stop    int64
	step    int64
}

func (it *rangeIterator) Next() (Value, bool) {
	if it.step > 0 && it.current >= it.stop {
		return nil, false
	}
	if it.step < 0 && it.current <= it.stop {
		return nil, false
	}
	v := Int(it.current)
	it.current += it.step
	return v, true
}

func (v RangeValue) Iter() Iterator {
	return &rangeIterator{current: v.Start, stop: v.Stop, step: v.Step}
}

func (v *ListValue) Len() int  { return len(v.Elements) }
func (v *TupleValue) Len() int { return len(v.Elements) }
func (v StrValue) Len() int    { return len([]rune(v.Val)) }

func (v RangeValue) Len() int {
	var span, step int64
	if v.Step > 0 {
		span, step = v.Stop-v.Start, v.Step
	} else {
		span, step = v.Start-v.Stop, -v.Step
	}
	if span <= 0 {
		return 0
	}
	return int((span + step - 1) / step)
}

//-----------------------------------------------------------------------------
// Shared predicates
//-----------------------------------------------------------------------------

// Truthy applies the source language's truthiness rules.
func Truthy(v Value) bool {
	switch val := v.(type) {
	case NoneValue:
		return false
	case BoolValue:
		return val.Val
	case IntValue:
		return val.Val != nil && val.Val.Sign() != 0
	case FloatValue:
		return val.Val != 0
	case StrValue:
		return val.Val != ""
	case *ListValue:
		return len(val.Elements) > 0
	case *TupleValue:
		return len(val.Elements) > 0
	case RangeValue:
		iter := val.Iter()
		_, ok := iter.Next()
		return ok
	default:
		return true
	}
}

// Equal compares two values structurally. Numeric values compare across
// int/float the way the source language does.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case NoneValue:
		_, ok := b.(NoneValue)
		return ok
	case BoolValue:
		bv, ok := b.(BoolValue)
		return ok && av.Val == bv.Val
	case IntValue:
		switch bv := b.(type) {
		case IntValue:
			return av.Val.Cmp(bv.Val) == 0
		case FloatValue:
			f, _ := new(big.Float).SetInt(av.Val).Float64()
			return f == bv.Val
		}
		return false
	case FloatValue:
		switch bv := b.(type) {
		case FloatValue:
			return av.Val == bv.Val
		case IntValue:
			return Equal(b, a)
		}
		return false
	case StrValue:
		bv, ok := b.(StrValue)
		return ok && av.Val == bv.Val
	case *ListValue:
		bv, ok := b.(*ListValue)
		if !ok || len(av.Elements) != len(bv.Elements) {
			return false
		}
		for i := range av.Elements {
			if !Equal(av.Elements[i], bv.Elements[i]) {
				return false
			}
		}
		return true
	case *TupleValue:
		bv, ok := b.(*TupleValue)
		if !ok || len(av.Elements) != len(bv.Elements) {
			return false
		}
		for i := range av.Elements {
			if !Equal(av.Elements[i], bv.Elements[i]) {
				return false
			}
		}
		return true
	case RangeValue:
		bv, ok := b.(RangeValue)
		return ok && av == bv
	default:
		return a == b
	}
}
