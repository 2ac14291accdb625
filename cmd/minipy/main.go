package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"go.uber.org/zap"

	"github.com/minipy-lang/minipy/pkg/builtins"
	"github.com/minipy-lang/minipy/pkg/driver"
	"github.com/minipy-lang/minipy/pkg/exceptions"
)

const cliToolVersion = "minipy-cli 0.0.0-dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return 1
	}

	switch args[0] {
	case "--help", "-h", "help":
		printUsage(stdout)
		return 0
	case "--version", "-V", "version":
		fmt.Fprintln(stdout, cliToolVersion)
		return 0
	case "demo":
		return runDemo(args[1:], stdout, stderr)
	case "suite":
		return runSuite(args[1:], stdout, stderr)
	case "sync":
		return runSync(args[1:], stdout, stderr)
	case "programs":
		return listPrograms(stdout)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", args[0])
		printUsage(stderr)
		return 1
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: minipy <command> [args]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "commands:")
	fmt.Fprintln(w, "  demo <program>       run a registered sample program")
	fmt.Fprintln(w, "  suite [suite.yml]    run a conformance suite (default from minipy.yml)")
	fmt.Fprintln(w, "  sync <url> <dir>     fetch a conformance suite repository")
	fmt.Fprintln(w, "  programs             list registered sample programs")
	fmt.Fprintln(w, "  version              print the CLI version")
}

// runDemo executes one registered program. A failure escaping the outermost
// boundary prints its diagnostic trace to the error stream and fails the
// invocation; it is never converted to a default value.
func runDemo(args []string, stdout, stderr io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(stderr, "minipy demo requires exactly one program name")
		return 1
	}
	program, ok := driver.Programs()[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "unknown program %q (try 'minipy programs')\n", args[0])
		return 1
	}
	value, err := program.Run(builtins.StdPrint{})
	if err != nil {
		if raise, ok := exceptions.AsRaise(err); ok {
			fmt.Fprint(stderr, exceptions.FormatTraceback(raise))
		} else {
			fmt.Fprintf(stderr, "%v\n", err)
		}
		return 1
	}
	fmt.Fprintln(stdout, value.Repr())
	return 0
}

func runSuite(args []string, stdout, stderr io.Writer) int {
	verbose := false
	paths := make([]string, 0, len(args))
	for _, arg := range args {
		if arg == "--verbose" || arg == "-v" {
			verbose = true
			continue
		}
		paths = append(paths, arg)
	}
	cfg, err := driver.LoadConfig("minipy.yml")
	if err != nil {
		fmt.Fprintf(stderr, "failed to load config: %v\n", err)
		return 1
	}
	if len(paths) == 0 && cfg.Suite != "" {
		paths = append(paths, cfg.Suite)
	}
	if len(paths) != 1 {
		fmt.Fprintln(stderr, "minipy suite requires exactly one suite.yml path")
		return 1
	}

	suite, err := driver.LoadSuite(paths[0])
	if err != nil {
		fmt.Fprintf(stderr, "failed to load suite: %v\n", err)
		return 1
	}

	logger := zap.NewNop()
	if verbose {
		devLogger, logErr := zap.NewDevelopment()
		if logErr != nil {
			fmt.Fprintf(stderr, "failed to initialise logger: %v\n", logErr)
			return 1
		}
		logger = devLogger
		defer func() {
			_ = logger.Sync()
		}()
	}

	result, err := driver.NewRunner(logger, cfg).RunSuite(suite)
	if err != nil {
		fmt.Fprintf(stderr, "suite error: %v\n", err)
		return 1
	}
	for _, c := range result.Cases {
		if c.Passed {
			continue
		}
		fmt.Fprintf(stderr, "FAIL %s (%s)\n%s", c.Name, c.Program, c.Diff)
	}
	fmt.Fprintf(stdout, "%s: %d passed, %d failed\n", result.Suite, result.Passed, result.Failed)
	if result.Failed > 0 {
		return 1
	}
	return 0
}

func runSync(args []string, stdout, stderr io.Writer) int {
	if len(args) != 2 {
		fmt.Fprintln(stderr, "minipy sync requires a repository url and a target directory")
		return 1
	}
	suite, err := driver.SyncSuite(args[0], args[1])
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "synced suite %q (%d cases) into %s\n", suite.Name, len(suite.Cases), args[1])
	return 0
}

func listPrograms(stdout io.Writer) int {
	programs := driver.Programs()
	names := make([]string, 0, len(programs))
	for name := range programs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(stdout, "%-24s %s\n", name, programs[name].Doc)
	}
	return 0
}
