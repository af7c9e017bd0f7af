package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitLevel(t *testing.T) {
	e, st := newTestEngine(t, 10)
	ctx := context.Background()
	inputs := allocate(t, e, "w1")

	require.NoError(t, e.SubmitLevel(ctx, inputs.LevelID, 93000, "fun, but long"))

	level, err := st.Queries().Level(ctx, inputs.LevelID)
	require.NoError(t, err)
	require.NotNil(t, level.DurationMsec)
	require.NotNil(t, level.Feedback)
	assert.Equal(t, int64(93000), *level.DurationMsec)
	assert.Equal(t, "fun, but long", *level.Feedback)
}

func TestSubmitLevel_UnknownLevel(t *testing.T) {
	e, _ := newTestEngine(t, 10)
	err := e.SubmitLevel(context.Background(), 404, 1, "")
	assert.True(t, IsKind(err, KindInvalidResults))
}
