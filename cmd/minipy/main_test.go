package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func captureCLI(t *testing.T, args []string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(strings.TrimSpace(contents)+"\n"), 0o644); err != nil {
		t.Fatalf("write file %s: %v", path, err)
	}
}

func TestVersion(t *testing.T) {
	code, stdout, _ := captureCLI(t, []string{"--version"})
	if code != 0 {
		t.Fatalf("exit = %d", code)
	}
	if !strings.Contains(stdout, cliToolVersion) {
		t.Fatalf("stdout = %q", stdout)
	}
}

func TestNoArgsPrintsUsage(t *testing.T) {
	code, _, stderr := captureCLI(t, nil)
	if code != 1 {
		t.Fatalf("exit = %d, want 1", code)
	}
	if !strings.Contains(stderr, "usage: minipy") {
		t.Fatalf("stderr = %q", stderr)
	}
}

func TestUnknownCommand(t *testing.T) {
	code, _, stderr := captureCLI(t, []string{"frobnicate"})
	if code != 1 {
		t.Fatalf("exit = %d, want 1", code)
	}
	if !strings.Contains(stderr, "unknown command") {
		t.Fatalf("stderr = %q", stderr)
	}
}

func TestDemoSimple(t *testing.T) {
	code, stdout, stderr := captureCLI(t, []string{"demo", "asyncio_run_simple"})
	if code != 0 {
		t.Fatalf("exit = %d (stderr: %q)", code, stderr)
	}
	if strings.TrimSpace(stdout) != "42" {
		t.Fatalf("stdout = %q, want 42", stdout)
	}
}

func TestDemoGatherOrdering(t *testing.T) {
	code, stdout, stderr := captureCLI(t, []string{"demo", "asyncio_run_gather"})
	if code != 0 {
		t.Fatalf("exit = %d (stderr: %q)", code, stderr)
	}
	if strings.TrimSpace(stdout) != "[2, 4, 6]" {
		t.Fatalf("stdout = %q, want [2, 4, 6]", stdout)
	}
}

func TestDemoFailurePrintsTraceback(t *testing.T) {
	code, stdout, stderr := captureCLI(t, []string{"demo", "map_not_iterable"})
	if code != 1 {
		t.Fatalf("exit = %d, want 1", code)
	}
	if stdout != "" {
		t.Fatalf("stdout = %q, want empty", stdout)
	}
	want := `Traceback (most recent call last):
  File "builtin__map_not_iterable.py", line 2, in <module>
    map(abs, 42)
    ~~~~~~~~~~~~
TypeError: 'int' object is not iterable
`
	if stderr != want {
		t.Fatalf("stderr = %q, want %q", stderr, want)
	}
}

func TestDemoUnknownProgram(t *testing.T) {
	code, _, stderr := captureCLI(t, []string{"demo", "ghost"})
	if code != 1 {
		t.Fatalf("exit = %d, want 1", code)
	}
	if !strings.Contains(stderr, "unknown program") {
		t.Fatalf("stderr = %q", stderr)
	}
}

func TestProgramsLists(t *testing.T) {
	code, stdout, _ := captureCLI(t, []string{"programs"})
	if code != 0 {
		t.Fatalf("exit = %d", code)
	}
	for _, name := range []string{"asyncio_run_simple", "asyncio_run_gather", "map_not_iterable"} {
		if !strings.Contains(stdout, name) {
			t.Fatalf("programs output missing %q:\n%s", name, stdout)
		}
	}
}

func TestSuiteCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suite.yml")
	writeFile(t, path, `
name: cli
cases:
  - name: basic run
    program: asyncio_run_simple
    expect:
      result: "42"
  - name: gather ordering
    program: asyncio_run_gather
    expect:
      result: "[2, 4, 6]"
`)
	code, stdout, stderr := captureCLI(t, []string{"suite", path})
	if code != 0 {
		t.Fatalf("exit = %d (stderr: %q)", code, stderr)
	}
	if !strings.Contains(stdout, "2 passed, 0 failed") {
		t.Fatalf("stdout = %q", stdout)
	}
}

func TestSuiteCommandFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suite.yml")
	writeFile(t, path, `
name: cli
cases:
  - name: wrong answer
    program: asyncio_run_simple
    expect:
      result: "41"
`)
	code, stdout, stderr := captureCLI(t, []string{"suite", path})
	if code != 1 {
		t.Fatalf("exit = %d, want 1", code)
	}
	if !strings.Contains(stderr, "FAIL wrong answer") {
		t.Fatalf("stderr = %q", stderr)
	}
	if !strings.Contains(stdout, "0 passed, 1 failed") {
		t.Fatalf("stdout = %q", stdout)
	}
}

func TestSuiteCommandMissingPath(t *testing.T) {
	code, _, stderr := captureCLI(t, []string{"suite"})
	if code != 1 {
		t.Fatalf("exit = %d, want 1", code)
	}
	if !strings.Contains(stderr, "suite.yml path") {
		t.Fatalf("stderr = %q", stderr)
	}
}

func TestSyncRequiresArgs(t *testing.T) {
	code, _, stderr := captureCLI(t, []string{"sync", "only-one"})
	if code != 1 {
		t.Fatalf("exit = %d, want 1", code)
	}
	if !strings.Contains(stderr, "repository url") {
		t.Fatalf("stderr = %q", stderr)
	}
}
