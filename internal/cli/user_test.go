package cli

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/memento/internal/store"
)

func TestUser_NotFound(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "user", "w-unknown")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E_NOT_FOUND]")

	// The lookup does not create the worker.
	st, err := store.Open(env.db)
	require.NoError(t, err)
	defer st.Close()
	_, err = st.Queries().UserByWorkerID(context.Background(), "w-unknown")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUser(t *testing.T) {
	env := newTestEnv(t)

	st, err := store.Open(env.db)
	require.NoError(t, err)
	u, err := st.Queries().ResolveUser(context.Background(), "w-1", 2)
	require.NoError(t, err)
	require.NoError(t, st.Queries().SetLives(context.Background(), u.ID, 0))
	require.NoError(t, st.Close())

	out, err := env.run(t, "user", "w-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Worker w-1")
	assert.Contains(t, out, "lives:   0 (blocked)")
	assert.Contains(t, out, "0 started, 0 scored")

	out, err = env.run(t, "--format", "json", "user", "w-1")
	require.NoError(t, err)
	var resp struct {
		Data UserReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "w-1", resp.Data.WorkerID)
	assert.True(t, resp.Data.Blocked)
	assert.Empty(t, resp.Data.CompletedLevels)
}
