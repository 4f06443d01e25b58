package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jjazzboss/JJazzLab-sub029/internal/harness"
	"github.com/jjazzboss/JJazzLab-sub029/internal/journal"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Journal string
	Golden  string
	Update  bool
}

// ScenarioResult is the outcome of one scenario file.
type ScenarioResult struct {
	Path   string               `json:"path"`
	Name   string               `json:"name"`
	Pass   bool                 `json:"pass"`
	Errors []string             `json:"errors,omitempty"`
	Trace  []harness.TraceEvent `json:"trace,omitempty"`
	Final  string               `json:"final,omitempty"`
}

// RunResult summarizes a run command.
type RunResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Total     int              `json:"total"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
}

// WriteText prints one line per scenario and a summary.
func (r RunResult) WriteText(w io.Writer, verbose bool) {
	if r.Total == 0 {
		fmt.Fprintln(w, "No scenarios found.")
		return
	}
	for _, s := range r.Scenarios {
		mark := "✓"
		if !s.Pass {
			mark = "✗"
		}
		fmt.Fprintf(w, "%s %s\n", mark, s.Name)
		for _, e := range s.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
		if verbose && s.Final != "" {
			for _, line := range strings.Split(strings.TrimSuffix(s.Final, "\n"), "\n") {
				fmt.Fprintf(w, "  | %s\n", line)
			}
		}
	}
	fmt.Fprintf(w, "\n%d passed, %d failed, %d total\n", r.Passed, r.Failed, r.Total)
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario|dir>...",
		Short: "Run edit scenarios against a fresh leadsheet",
		Long: `Run scenario files. Each scenario builds a leadsheet, applies its steps,
checks every step outcome and assertion, then verifies that undoing
everything restores the initial leadsheet when undo_stress is set.

Directories contribute their *.yaml and *.yml files.

With --journal every scenario is recorded as a session of the given
SQLite database. With --golden each trace is compared against
<dir>/<name>.golden; --update rewrites those files instead.

Exit codes:
  0 - All scenarios passed
  1 - At least one scenario failed
  2 - Command error (missing path, unusable database)

Examples:
  leadsheet run ./scenarios
  leadsheet run --journal ./edits.db ./scenarios/veto.yaml
  leadsheet run --golden ./testdata/golden --update ./scenarios`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "journal", "", "record sessions to this SQLite database")
	cmd.Flags().StringVar(&opts.Golden, "golden", "", "compare traces against golden files in this directory")
	cmd.Flags().BoolVar(&opts.Update, "update", false, "rewrite golden files instead of comparing")

	return cmd
}

func runScenarios(opts *RunOptions, paths []string, cmd *cobra.Command) error {
	if opts.Update && opts.Golden == "" {
		return NewExitError(ExitCommandError, "--update requires --golden")
	}

	files, err := harness.ExpandPaths(paths)
	if err != nil {
		var nf *harness.ScenarioNotFoundError
		if errors.As(err, &nf) {
			return WrapExitError(ExitCommandError, "scenario not found", err)
		}
		return WrapExitError(ExitCommandError, "failed to read scenarios", err)
	}

	runOpts := []harness.Option{
		harness.WithFactory(opts.factory()),
		harness.WithLogger(opts.logger()),
	}
	if opts.Journal != "" {
		j, err := journal.Open(opts.Journal, journal.WithLogger(opts.logger()))
		if err != nil {
			return opts.formatter(cmd).Fail(ExitCommandError, ErrCodeDatabase, "failed to open journal", err)
		}
		defer func() {
			if closeErr := j.Close(); closeErr != nil {
				opts.logger().Error("error closing journal", "error", closeErr)
			}
		}()
		runOpts = append(runOpts, harness.WithJournal(j))
	}

	out := opts.formatter(cmd)
	result := RunResult{Scenarios: make([]ScenarioResult, 0, len(files)), Total: len(files)}
	for _, path := range files {
		out.VerboseLog("running %s", path)
		sr := runScenario(opts, path, runOpts)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
		result.Scenarios = append(result.Scenarios, sr)
	}

	if err := out.Success(result); err != nil {
		return err
	}
	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenario(s) failed", result.Failed, result.Total))
	}
	return nil
}

func runScenario(opts *RunOptions, path string, runOpts []harness.Option) ScenarioResult {
	sr := ScenarioResult{Path: path, Name: filepath.Base(path)}

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		sr.Errors = []string{fmt.Sprintf("failed to load scenario: %v", err)}
		return sr
	}
	sr.Name = scenario.Name

	result, err := harness.Run(scenario, runOpts...)
	if err != nil {
		sr.Errors = []string{fmt.Sprintf("execution failed: %v", err)}
		return sr
	}
	sr.Pass = result.Pass
	sr.Errors = result.Errors
	sr.Trace = result.Trace
	if result.Final != nil {
		sr.Final = result.Final.Dump()
	}

	if opts.Golden != "" {
		if err := checkGolden(opts, scenario.Name, harness.FormatTrace(scenario.Name, result)); err != nil {
			sr.Pass = false
			sr.Errors = append(sr.Errors, err.Error())
		}
	}
	return sr
}

// checkGolden compares a trace with its golden file, or rewrites the file
// when updating.
func checkGolden(opts *RunOptions, name string, trace []byte) error {
	path := filepath.Join(opts.Golden, name+".golden")
	if opts.Update {
		if err := os.MkdirAll(opts.Golden, 0o755); err != nil {
			return fmt.Errorf("failed to create golden directory: %w", err)
		}
		if err := os.WriteFile(path, trace, 0o644); err != nil {
			return fmt.Errorf("failed to write golden file: %w", err)
		}
		return nil
	}

	want, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("golden file %s not found (run with --update)", path)
	}
	if err != nil {
		return fmt.Errorf("failed to read golden file: %w", err)
	}
	if line, ok := firstDiff(want, trace); !ok {
		return fmt.Errorf("trace differs from %s at line %d", path, line)
	}
	return nil
}

// firstDiff returns the 1-based line where a and b first differ.
func firstDiff(a, b []byte) (int, bool) {
	if bytes.Equal(a, b) {
		return 0, true
	}
	al := strings.Split(string(a), "\n")
	bl := strings.Split(string(b), "\n")
	for i := 0; i < len(al) && i < len(bl); i++ {
		if al[i] != bl[i] {
			return i + 1, false
		}
	}
	return min(len(al), len(bl)) + 1, false
}
