package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ScenarioNotFoundError is returned when a requested scenario path doesn't exist.
type ScenarioNotFoundError struct {
	Path string
}

// Error implements the error interface.
func (e *ScenarioNotFoundError) Error() string {
	return fmt.Sprintf("scenario %q does not exist", e.Path)
}

// SuiteResult summarizes a batch of scenario runs.
type SuiteResult struct {
	Total    int            `json:"total"`
	Passed   int            `json:"passed"`
	Failed   int            `json:"failed"`
	Results  []FileResult   `json:"results"`
	Failures []SuiteFailure `json:"failures,omitempty"`
}

// FileResult is the result of one scenario file.
type FileResult struct {
	Path   string  `json:"path"`
	Name   string  `json:"name"`
	Result *Result `json:"result"`
}

// SuiteFailure is a scenario that failed to load, run or pass.
type SuiteFailure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// ExpandPaths resolves files and directories into scenario files.
// Directories contribute their *.yaml and *.yml files, sorted.
func ExpandPaths(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if os.IsNotExist(err) {
			return nil, &ScenarioNotFoundError{Path: p}
		}
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		var found []string
		for _, pattern := range []string{"*.yaml", "*.yml"} {
			m, err := filepath.Glob(filepath.Join(p, pattern))
			if err != nil {
				return nil, err
			}
			found = append(found, m...)
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	return files, nil
}

// RunFiles loads and runs every scenario under paths.
// A scenario that fails to load or run counts as a failure; the returned
// error only reports unusable paths.
func RunFiles(paths []string, opts ...Option) (*SuiteResult, error) {
	files, err := ExpandPaths(paths)
	if err != nil {
		return nil, err
	}

	suite := &SuiteResult{Results: []FileResult{}}
	for _, path := range files {
		suite.Total++
		fail := func(err error) {
			suite.Failed++
			suite.Failures = append(suite.Failures, SuiteFailure{Path: path, Error: err.Error()})
		}

		scenario, err := LoadScenario(path)
		if err != nil {
			fail(err)
			continue
		}
		result, err := Run(scenario, opts...)
		if err != nil {
			fail(err)
			continue
		}
		suite.Results = append(suite.Results, FileResult{Path: path, Name: scenario.Name, Result: result})
		if !result.Pass {
			fail(fmt.Errorf("%d error(s): %s", len(result.Errors), result.Errors[0]))
			continue
		}
		suite.Passed++
	}
	return suite, nil
}
