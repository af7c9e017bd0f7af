package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/memento/internal/testutil"
)

func TestFixLabelCounts_ReleasesAbandonedLevels(t *testing.T) {
	e, st := newTestEngine(t, 20)
	ctx := context.Background()

	abandoned := allocate(t, e, "w1")
	scored := allocate(t, e, "w2")
	pending := allocate(t, e, "w3")
	_, err := submit(e, "w2", scored, true)
	require.NoError(t, err)
	testutil.Backdate(t, st, abandoned.LevelID, 2*time.Hour)

	before := testutil.Labels(t, st)
	assert.Equal(t, 1, before[abandoned.Videos[0].URL])

	changed, err := e.FixLabelCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), changed)

	after := testutil.Labels(t, st)
	assert.Equal(t, 0, after[abandoned.Videos[0].URL])
	assert.Equal(t, 0, after[abandoned.Videos[5].URL])
	assert.Equal(t, 1, after[scored.Videos[0].URL])
	assert.Equal(t, 1, after[scored.Videos[5].URL])
	assert.Equal(t, 1, after[pending.Videos[0].URL])

	changed, err = e.FixLabelCounts(ctx)
	require.NoError(t, err)
	assert.Zero(t, changed, "second pass is a no-op")
}

func TestFixLabelCounts_RepairsDrift(t *testing.T) {
	e, st := newTestEngine(t, 10)
	ctx := context.Background()

	inputs := allocate(t, e, "w1")
	_, err := st.DB().ExecContext(ctx, `UPDATE videos SET labels = 42`)
	require.NoError(t, err)

	changed, err := e.FixLabelCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(10), changed)

	labels := testutil.Labels(t, st)
	assert.Equal(t, 1, labels[inputs.Videos[0].URL])
	assert.Equal(t, 0, labels[inputs.Videos[2].URL])
}

func TestReconciler_RunsUntilCancelled(t *testing.T) {
	rec := &fakeRecorder{}
	e, _ := newTestEngine(t, 10)
	e.rec = rec

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewReconciler(e, 10*time.Millisecond).Run(ctx) }()

	require.Eventually(t, func() bool { return rec.reconcileCount() >= 3 }, 5*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(5 * time.Second):
		t.Fatal("reconciler did not stop")
	}
}
