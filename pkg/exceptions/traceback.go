package exceptions

import (
	"errors"
	"strconv"
	"strings"
)

// CallFrame snapshots one call site for diagnostic rendering. ColStart and
// ColEnd are byte offsets into SourceLine delimiting the failing call
// expression (end exclusive); they matter only on the innermost frame.
type CallFrame struct {
	File       string
	Line       int
	Name       string
	SourceLine string
	ColStart   int
	ColEnd     int
}

// Raise is an exception in flight: the failure itself plus the chain of call
// frames it passed through, outermost first. It is the error type every
// engine operation propagates; the chain is only ever grown at the front
// while unwinding.
type Raise struct {
	Exc    Exception
	Frames []CallFrame
}

func NewRaise(exc Exception, frames ...CallFrame) *Raise {
	return &Raise{Exc: exc, Frames: frames}
}

func (r *Raise) Error() string {
	return r.Exc.Error()
}

// WithFrame returns a copy of r with frame prepended as the new outermost
// call site. The receiver is left untouched so records already handed to a
// caller stay immutable.
func (r *Raise) WithFrame(frame CallFrame) *Raise {
	frames := make([]CallFrame, 0, len(r.Frames)+1)
	frames = append(frames, frame)
	frames = append(frames, r.Frames...)
	return &Raise{Exc: r.Exc, Frames: frames}
}

// AsRaise unwraps err into a *Raise if it carries one.
func AsRaise(err error) (*Raise, bool) {
	var r *Raise
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

// NestedRun is the failure raised when a run is started while another
// scheduler context is already active on the same logical thread.
func NestedRun() *Raise {
	return NewRaise(New(RuntimeError, "asyncio.run() cannot be called from a running event loop"))
}

// IsNestedRun reports whether err is the nested-run usage failure.
func IsNestedRun(err error) bool {
	r, ok := AsRaise(err)
	return ok && r.Exc.Kind == RuntimeError &&
		strings.Contains(r.Exc.Message, "cannot be called from a running event loop")
}

const tracebackHeader = "Traceback (most recent call last):"

// FormatTraceback renders the fixed diagnostic text for a failure. The
// output is a pure function of the record: byte-identical input produces
// byte-identical output, with a trailing newline after the final line.
func FormatTraceback(r *Raise) string {
	var b strings.Builder
	if len(r.Frames) > 0 {
		b.WriteString(tracebackHeader)
		b.WriteByte('\n')
		for i, frame := range r.Frames {
			writeFrame(&b, frame, i == len(r.Frames)-1)
		}
	}
	b.WriteString(r.Exc.Error())
	b.WriteByte('\n')
	return b.String()
}

func writeFrame(b *strings.Builder, frame CallFrame, innermost bool) {
	b.WriteString("  File \"")
	b.WriteString(frame.File)
	b.WriteString("\", line ")
	b.WriteString(strconv.Itoa(frame.Line))
	b.WriteString(", in ")
	b.WriteString(frame.Name)
	b.WriteByte('\n')

	if frame.SourceLine == "" {
		return
	}
	trimmed := strings.TrimLeft(frame.SourceLine, " \t")
	indent := len(frame.SourceLine) - len(trimmed)
	b.WriteString("    ")
	b.WriteString(trimmed)
	b.WriteByte('\n')

	if !innermost {
		return
	}
	start, end := frame.ColStart, frame.ColEnd
	if end <= start {
		return
	}
	if start < indent {
		start = indent
	}
	b.WriteString("    ")
	b.WriteString(strings.Repeat(" ", start-indent))
	b.WriteString(strings.Repeat("~", end-start))
	b.WriteByte('\n')
}
