package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplatesValidate(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "templates", "validate", templateRoot+"/level_templates")
	require.NoError(t, err)
	assert.Contains(t, out, "ok    seq_01.json  targets=2 fillers=3 slots=8")
	assert.Contains(t, out, "ok    seq_02.yaml")
	assert.NotContains(t, out, "notes.txt")
	assert.Contains(t, out, "2 valid, 0 invalid")
}

func TestTemplatesValidate_ConfiguredDir(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "--format", "json", "templates", "validate")
	require.NoError(t, err)

	var resp struct {
		Status string          `json:"status"`
		Data   TemplatesResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, templateRoot+"/level_templates", resp.Data.Dir)
	assert.Equal(t, 2, resp.Data.Valid)
	assert.Zero(t, resp.Data.Invalid)
}

func TestTemplatesValidate_Invalid(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "templates", "validate", "../sequence/testdata/invalid")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "FAIL  bad_type.json")
	assert.Contains(t, out, "FAIL  gap.json")
	assert.Contains(t, out, "0 valid, 2 invalid")
}

func TestTemplatesValidate_Empty(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "templates", "validate", env.dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E_TEMPLATE]")
}

func TestTemplatesValidate_MissingDir(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "templates", "validate", env.dir+"/missing")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
