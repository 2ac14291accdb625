// Package exceptions models the engine's failure records: typed exceptions,
// the call-frame chains gathered while unwinding, and the fixed-format
// diagnostic traceback rendered at the outermost boundary.
package exceptions

import "fmt"

// Kind tags the closed set of failure categories the engine can raise.
type Kind int

const (
	TypeError Kind = iota
	ValueError
	NameError
	AttributeError
	RuntimeError
)

func (k Kind) String() string {
	switch k {
	case TypeError:
		return "TypeError"
	case ValueError:
		return "ValueError"
	case NameError:
		return "NameError"
	case AttributeError:
		return "AttributeError"
	case RuntimeError:
		return "RuntimeError"
	default:
		return fmt.Sprintf("UnknownError(%d)", int(k))
	}
}

// Exception is a failure kind plus its already-formatted message.
type Exception struct {
	Kind    Kind
	Message string
}

func New(kind Kind, message string) Exception {
	return Exception{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) Exception {
	return Exception{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Error renders the final traceback line form: "<Kind>: <message>".
func (e Exception) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Message
}

// ShapeMessage is the single formatting point for argument-shape failures.
// The payload stays structured (type name + missing capability) until here.
func ShapeMessage(typeName, capability string) string {
	return fmt.Sprintf("'%s' object is not %s", typeName, capability)
}

// NotIterable reports a value lacking the iteration capability.
func NotIterable(typeName string) Exception {
	return New(TypeError, ShapeMessage(typeName, "iterable"))
}

// NotCallable reports a value lacking the call capability.
func NotCallable(typeName string) Exception {
	return New(TypeError, ShapeMessage(typeName, "callable"))
}
