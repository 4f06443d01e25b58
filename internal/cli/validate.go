package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jjazzboss/JJazzLab-sub029/internal/harness"
)

// FileValidation is the validation outcome of one scenario file.
type FileValidation struct {
	Path  string `json:"path"`
	Name  string `json:"name,omitempty"`
	Steps int    `json:"steps"`
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// ValidateResult summarizes a validate command.
type ValidateResult struct {
	Files   []FileValidation `json:"files"`
	Valid   int              `json:"valid"`
	Invalid int              `json:"invalid"`
}

// WriteText prints one line per file.
func (r ValidateResult) WriteText(w io.Writer, _ bool) {
	for _, f := range r.Files {
		if f.Valid {
			fmt.Fprintf(w, "✓ %s (%s, %d steps)\n", f.Path, f.Name, f.Steps)
			continue
		}
		fmt.Fprintf(w, "✗ %s\n  %s\n", f.Path, f.Error)
	}
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario|dir>...",
		Short: "Check scenario files without running them",
		Long: `Parse and validate scenario files: unknown fields, unknown operations,
missing step arguments and malformed assertions are reported.

Exit codes:
  0 - All scenarios are valid
  1 - At least one scenario is invalid
  2 - Command error (missing path)

Examples:
  leadsheet validate ./scenarios
  leadsheet validate --format json ./scenarios/veto.yaml`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	files, err := harness.ExpandPaths(paths)
	if err != nil {
		var nf *harness.ScenarioNotFoundError
		if errors.As(err, &nf) {
			return WrapExitError(ExitCommandError, "scenario not found", err)
		}
		return WrapExitError(ExitCommandError, "failed to read scenarios", err)
	}

	result := ValidateResult{Files: make([]FileValidation, 0, len(files))}
	for _, path := range files {
		fv := FileValidation{Path: path}
		scenario, err := harness.LoadScenario(path)
		if err != nil {
			fv.Error = err.Error()
			result.Invalid++
		} else {
			fv.Name = scenario.Name
			fv.Steps = len(scenario.Steps)
			fv.Valid = true
			result.Valid++
		}
		result.Files = append(result.Files, fv)
	}

	if err := opts.formatter(cmd).Success(result); err != nil {
		return err
	}
	if result.Invalid > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d invalid scenario(s)", result.Invalid))
	}
	return nil
}
