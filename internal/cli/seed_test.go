package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeed(t *testing.T) {
	env := newTestEnv(t)
	file := env.writeFile(t, "videos.yaml", `
- https://cdn.example/a.mp4
- https://cdn.example/b.mp4
- "  https://cdn.example/c.mp4  "
`)

	out, err := env.run(t, "seed", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Inserted 3 new videos (3 read, 3 in catalogue)")

	// Seeding is idempotent.
	out, err = env.run(t, "seed", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Inserted 0 new videos (3 read, 3 in catalogue)")
}

func TestSeed_JSON(t *testing.T) {
	env := newTestEnv(t)
	file := env.writeFile(t, "videos.json", `["https://cdn.example/a.mp4", "https://cdn.example/b.mp4"]`)

	out, err := env.run(t, "--format", "json", "seed", file)
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   SeedResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, int64(2), resp.Data.Inserted)
	assert.Equal(t, 2, resp.Data.Total)
}

func TestSeed_InvalidFile(t *testing.T) {
	env := newTestEnv(t)

	tests := map[string]string{
		"not a list":  "url: https://cdn.example/a.mp4\n",
		"empty entry": "- https://cdn.example/a.mp4\n- \"\"\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			file := env.writeFile(t, "bad.yaml", content)
			out, err := env.run(t, "seed", file)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, out, "Error [E_INPUT]")
		})
	}
}

func TestSeed_MissingFile(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "seed", env.dir+"/nope.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
