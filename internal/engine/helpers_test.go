package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/memento/internal/model"
	"github.com/roach88/memento/internal/store"
	"github.com/roach88/memento/internal/testutil"
)

// testPolicy is the production policy without the fast-submit guard, so
// tests can submit right after allocating.
func testPolicy() Policy {
	p := DefaultPolicy()
	p.ErrorOnFastSubmit = false
	return p
}

func newTestEngine(t *testing.T, videos int, opts ...func(*Policy)) (*Engine, *store.Store) {
	t.Helper()

	st := testutil.NewStore(t, videos)
	p := testPolicy()
	for _, opt := range opts {
		opt(&p)
	}
	return New(st, p), st
}

func allocate(t *testing.T, e *Engine, workerID string) model.LevelInputs {
	t.Helper()

	inputs, err := e.GetVideos(context.Background(), AllocateArgs{WorkerID: workerID}, testutil.Template())
	require.NoError(t, err)
	return inputs
}

func submit(e *Engine, workerID string, inputs model.LevelInputs, correct bool) (SaveResult, error) {
	return e.SaveResponses(context.Background(), SaveArgs{
		WorkerID:    workerID,
		LevelID:     inputs.LevelID,
		Responses:   testutil.Answers(inputs, correct),
		LevelInputs: inputs,
	})
}

func urls(inputs model.LevelInputs) map[string]bool {
	out := map[string]bool{}
	for _, v := range inputs.Videos {
		out[v.URL] = true
	}
	return out
}

type fakeRecorder struct {
	mu         sync.Mutex
	allocated  int
	scored     []bool
	rejected   []string
	reconciled int
}

func (r *fakeRecorder) LevelAllocated() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.allocated++
}

func (r *fakeRecorder) LevelScored(passed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scored = append(r.scored, passed)
}

func (r *fakeRecorder) Rejected(op, kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected = append(r.rejected, op+"/"+kind)
}

func (r *fakeRecorder) LabelsReconciled(int64, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reconciled++
}

func (r *fakeRecorder) reconcileCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reconciled
}
