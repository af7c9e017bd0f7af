package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUserInfo_NewWorker(t *testing.T) {
	e, st := newTestEngine(t, 10)
	ctx := context.Background()

	info, err := e.GetUserInfo(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, 1, info.Level)

	u, err := st.Queries().UserByWorkerID(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, DefaultLives, u.NumLives)
}

func TestGetUserInfo_CountsScoredLevels(t *testing.T) {
	e, _ := newTestEngine(t, 10)

	inputs := allocate(t, e, "w1")
	info, err := e.GetUserInfo(context.Background(), "w1")
	require.NoError(t, err)
	assert.Equal(t, 1, info.Level, "pending levels do not count")

	_, err = submit(e, "w1", inputs, true)
	require.NoError(t, err)

	info, err = e.GetUserInfo(context.Background(), "w1")
	require.NoError(t, err)
	assert.Equal(t, 2, info.Level)
}

func TestGetUserInfo_Errors(t *testing.T) {
	e, st := newTestEngine(t, 10)
	ctx := context.Background()

	_, err := e.GetUserInfo(ctx, "")
	assert.True(t, IsKind(err, KindUnauthenticated))

	u, err := st.Queries().ResolveUser(ctx, "w1", 2)
	require.NoError(t, err)
	require.NoError(t, st.Queries().SetLives(ctx, u.ID, 0))

	_, err = e.GetUserInfo(ctx, "w1")
	assert.True(t, IsKind(err, KindBlocked))
}
