package driver

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Suite represents the parsed contents of suite.yml: an ordered list of
// conformance cases, each naming a registered program and the exact outcome
// it must produce.
type Suite struct {
	Path    string
	Name    string
	Version string
	Cases   []*Case
}

// Case is one conformance check. Exactly one of ExpectResult and
// ExpectTraceback is set: the repr of a completion value, or the byte-exact
// diagnostic trace of a failure escaping the outermost boundary.
type Case struct {
	Name            string
	Program         string
	ExpectResult    string
	ExpectTraceback string
}

// ValidationError aggregates suite validation failures.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "suite: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("suite validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

type suiteFile struct {
	Name    string      `yaml:"name"`
	Version string      `yaml:"version"`
	Cases   []*caseFile `yaml:"cases"`
}

type caseFile struct {
	Name    string      `yaml:"name"`
	Program string      `yaml:"program"`
	Expect  *expectFile `yaml:"expect"`
}

type expectFile struct {
	Result    string `yaml:"result"`
	Traceback string `yaml:"traceback"`
}

// LoadSuite parses suite.yml from disk, returning a validated suite.
func LoadSuite(path string) (*Suite, error) {
	if path == "" {
		return nil, fmt.Errorf("suite: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("suite: resolve %s: %w", path, err)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("suite: open %s: %w", absPath, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	var raw suiteFile
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("suite: %s is empty", absPath)
		}
		return nil, fmt.Errorf("suite: parse %s: %w", absPath, err)
	}

	suite := raw.toSuite(absPath)
	if err := suite.validate(); err != nil {
		return nil, err
	}
	return suite, nil
}

func (f *suiteFile) toSuite(path string) *Suite {
	suite := &Suite{
		Path:    path,
		Name:    f.Name,
		Version: f.Version,
	}
	for _, c := range f.Cases {
		if c == nil {
			continue
		}
		parsed := &Case{Name: c.Name, Program: c.Program}
		if c.Expect != nil {
			parsed.ExpectResult = c.Expect.Result
			parsed.ExpectTraceback = c.Expect.Traceback
		}
		suite.Cases = append(suite.Cases, parsed)
	}
	return suite
}

func (s *Suite) validate() error {
	var errs ValidationError
	if s.Name == "" {
		errs.Issues = append(errs.Issues, "name must be provided")
	}
	if len(s.Cases) == 0 {
		errs.Issues = append(errs.Issues, "cases must not be empty")
	}
	seen := make(map[string]struct{}, len(s.Cases))
	for i, c := range s.Cases {
		where := fmt.Sprintf("cases[%d]", i)
		if c.Name == "" {
			errs.Issues = append(errs.Issues, where+": name must be provided")
		} else {
			if _, dup := seen[c.Name]; dup {
				errs.Issues = append(errs.Issues, fmt.Sprintf("%s: duplicate case name %q", where, c.Name))
			}
			seen[c.Name] = struct{}{}
		}
		if c.Program == "" {
			errs.Issues = append(errs.Issues, where+": program must be provided")
		}
		hasResult := c.ExpectResult != ""
		hasTraceback := c.ExpectTraceback != ""
		if hasResult == hasTraceback {
			errs.Issues = append(errs.Issues, where+": expect must set exactly one of result and traceback")
		}
	}
	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}
