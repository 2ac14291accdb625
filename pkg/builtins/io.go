package builtins

import (
	"fmt"
	"os"
	"strings"
)

// PrintWriter receives the output of the print builtin. Implementations let
// the host decide where script output goes without the builtins knowing.
type PrintWriter interface {
	Print(line string)
}

// StdPrint writes to the process stdout.
type StdPrint struct{}

func (StdPrint) Print(line string) {
	fmt.Fprintln(os.Stdout, line)
}

// CollectPrint buffers printed lines, mainly for tests.
type CollectPrint struct {
	lines []string
}

func (w *CollectPrint) Print(line string) {
	w.lines = append(w.lines, line)
}

func (w *CollectPrint) Lines() []string { return w.lines }

func (w *CollectPrint) String() string {
	if len(w.lines) == 0 {
		return ""
	}
	return strings.Join(w.lines, "\n") + "\n"
}

// NoPrint discards output.
type NoPrint struct{}

func (NoPrint) Print(string) {}
