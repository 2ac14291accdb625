package driver

import (
	"fmt"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"github.com/minipy-lang/minipy/pkg/builtins"
	"github.com/minipy-lang/minipy/pkg/exceptions"
)

// Runner executes conformance suites against the registered programs.
type Runner struct {
	programs map[string]*Program
	logger   *zap.Logger
}

func NewRunner(logger *zap.Logger, cfg *Config) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = &Config{}
	}
	return &Runner{programs: ProgramsWithLimits(cfg.MaxTicks), logger: logger}
}

// CaseResult records one executed case. Diff is empty when the case passed.
type CaseResult struct {
	Name    string
	Program string
	Passed  bool
	Diff    string
}

// SuiteResult aggregates a suite run.
type SuiteResult struct {
	Suite  string
	Passed int
	Failed int
	Cases  []CaseResult
}

// RunSuite executes every case in order. A case mismatch is reported in the
// result, not as an error; errors are reserved for unrunnable suites (e.g.
// unknown program names).
func (r *Runner) RunSuite(suite *Suite) (*SuiteResult, error) {
	result := &SuiteResult{Suite: suite.Name}
	r.logger.Info("running suite",
		zap.String("suite", suite.Name),
		zap.Int("cases", len(suite.Cases)))

	for _, c := range suite.Cases {
		program, ok := r.programs[c.Program]
		if !ok {
			return nil, fmt.Errorf("suite %s: case %q references unknown program %q", suite.Name, c.Name, c.Program)
		}
		got := r.execute(program)
		want := c.ExpectResult
		if c.ExpectTraceback != "" {
			want = c.ExpectTraceback
		}
		diff := cmp.Diff(want, got)
		caseResult := CaseResult{Name: c.Name, Program: c.Program, Passed: diff == "", Diff: diff}
		if caseResult.Passed {
			result.Passed++
			r.logger.Debug("case passed", zap.String("case", c.Name))
		} else {
			result.Failed++
			r.logger.Warn("case failed",
				zap.String("case", c.Name),
				zap.String("program", c.Program))
		}
		result.Cases = append(result.Cases, caseResult)
	}

	r.logger.Info("suite finished",
		zap.String("suite", suite.Name),
		zap.Int("passed", result.Passed),
		zap.Int("failed", result.Failed))
	return result, nil
}

// execute normalises a program outcome to comparable text: the completion
// value's repr, or the formatted traceback of an escaping failure.
func (r *Runner) execute(program *Program) string {
	value, err := program.Run(builtins.NoPrint{})
	if err != nil {
		if raise, ok := exceptions.AsRaise(err); ok {
			return exceptions.FormatTraceback(raise)
		}
		return err.Error() + "\n"
	}
	return value.Repr()
}
