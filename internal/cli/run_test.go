package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const failingScenario = `name: wrong_expectation
description: "Expects a rejection that does not happen"
leadsheet:
  section: A
  size: 4
steps:
  - op: add_item
    chord: C
    at: "1:0"
    expect: rejected
assertions:
  - type: size
    value: 5
`

func TestRunCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	runCmd, _, err := cmd.Find([]string{"run"})
	require.NoError(t, err)

	for _, name := range []string{"journal", "golden", "update"} {
		assert.NotNil(t, runCmd.Flags().Lookup(name), name)
	}
}

func TestRun_AllScenariosPass(t *testing.T) {
	out, _, err := execute(t, "run", scenariosDir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ veto")
	assert.Contains(t, out, "✓ compound_undo")
	assert.Contains(t, out, "7 passed, 0 failed, 7 total")
}

func TestRun_JSON(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "run", filepath.Join(scenariosDir, "reject_duplicate.yaml"))
	require.NoError(t, err)

	var result RunResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, result.Total)
	require.Len(t, result.Scenarios, 1)

	s := result.Scenarios[0]
	assert.True(t, s.Pass)
	assert.Equal(t, "reject_duplicate", s.Name)
	require.Len(t, s.Trace, 2)
	assert.Equal(t, "applied", s.Trace[0].Outcome)
	assert.Equal(t, []string{`added chord "X" @2:1`}, s.Trace[0].Events)
	assert.Equal(t, "rejected", s.Trace[1].Outcome)
	assert.Contains(t, s.Final, `#2 2:1 chord "X"`)
}

func TestRun_Failure(t *testing.T) {
	path := writeFile(t, t.TempDir(), "wrong.yaml", failingScenario)

	out, _, err := execute(t, "run", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ wrong_expectation")
	assert.Contains(t, out, "expected rejected, got applied")
	assert.Contains(t, out, "0 passed, 1 failed, 1 total")
}

func TestRun_LoadError(t *testing.T) {
	path := writeFile(t, t.TempDir(), "broken.yaml", "name: broken\nbogus: 1\n")

	out, _, err := execute(t, "run", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestRun_MissingPath(t *testing.T) {
	_, _, err := execute(t, "run", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenario not found")
}

func TestRun_EmptyDirectory(t *testing.T) {
	out, _, err := execute(t, "run", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "No scenarios found.\n", out)
}

func TestRun_UpdateRequiresGolden(t *testing.T) {
	_, _, err := execute(t, "run", "--update", scenariosDir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRun_Golden(t *testing.T) {
	_, _, err := execute(t, "run", "--golden", "../harness/testdata/golden", scenariosDir)
	require.NoError(t, err)
}

func TestRun_GoldenUpdateThenCompare(t *testing.T) {
	golden := filepath.Join(t.TempDir(), "golden")
	scenario := filepath.Join(scenariosDir, "veto.yaml")

	_, _, err := execute(t, "run", "--golden", golden, scenario)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	_, _, err = execute(t, "run", "--golden", golden, "--update", scenario)
	require.NoError(t, err)

	written, err := os.ReadFile(filepath.Join(golden, "veto.golden"))
	require.NoError(t, err)
	want, err := os.ReadFile("../harness/testdata/golden/veto.golden")
	require.NoError(t, err)
	assert.Equal(t, string(want), string(written))

	_, _, err = execute(t, "run", "--golden", golden, scenario)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(golden, "veto.golden"), []byte("scenario veto\n"), 0o644))
	out, _, err := execute(t, "run", "--golden", golden, scenario)
	require.Error(t, err)
	assert.Contains(t, out, "at line 2")
}

func TestRun_ConfigLimitsSize(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "leadsheet.yaml", "max_size: 4\ndefault_size: 2\n")
	path := writeFile(t, dir, "grow.yaml", `name: grow
description: "Growing past the configured maximum is invalid"
leadsheet:
  section: A
  size: 4
steps:
  - op: set_size
    size: 5
    expect: invalid
`)

	_, _, err := execute(t, "--config", cfg, "run", path)
	require.NoError(t, err)
}

func TestFirstDiff(t *testing.T) {
	tests := []struct {
		a, b string
		line int
		same bool
	}{
		{"x\ny\n", "x\ny\n", 0, true},
		{"x\ny\n", "x\nz\n", 2, false},
		{"x\n", "x\ny\n", 2, false},
		{"", "a", 1, false},
	}
	for _, tt := range tests {
		line, same := firstDiff([]byte(tt.a), []byte(tt.b))
		assert.Equal(t, tt.same, same, "%q vs %q", tt.a, tt.b)
		assert.Equal(t, tt.line, line, "%q vs %q", tt.a, tt.b)
	}
}
