package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Valid(t *testing.T) {
	out, _, err := execute(t, "validate", filepath.Join(scenariosDir, "veto.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "✓ ../harness/testdata/scenarios/veto.yaml (veto, ")
}

func TestValidate_Directory(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "validate", scenariosDir)
	require.NoError(t, err)

	var result ValidateResult
	decodeResponse(t, out, &result)
	assert.Equal(t, 7, result.Valid)
	assert.Zero(t, result.Invalid)
	require.Len(t, result.Files, 7)
	assert.Equal(t, "collision_on_renormalize", result.Files[0].Name)
}

func TestValidate_Invalid(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a_ok.yaml", failingScenario)
	writeFile(t, dir, "b_bad.yaml", `name: bad
description: "Unknown op"
leadsheet:
  section: A
  size: 4
steps:
  - op: transpose
`)

	out, _, err := execute(t, "validate", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✓ ")
	assert.Contains(t, out, "✗ ")
	assert.Contains(t, out, `unknown op "transpose"`)
}

func TestValidate_MissingPath(t *testing.T) {
	_, _, err := execute(t, "validate", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
