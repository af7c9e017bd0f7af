package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/memento/internal/model"
)

// createTestStore creates a new store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// seedVideos inserts n videos named vid-0..vid-(n-1).
func seedVideos(t *testing.T, s *Store, n int) {
	t.Helper()
	uris := make([]string, n)
	for i := range uris {
		uris[i] = fmt.Sprintf("https://cdn.example/vid-%d.mp4", i)
	}
	_, err := s.Queries().SeedVideos(context.Background(), uris)
	require.NoError(t, err)
}

// createTestLevel inserts a pending level for userID showing videoIDs in
// order with the given content types.
func createTestLevel(t *testing.T, s *Store, userID int64, videoIDs []int64, types []model.ContentType) int64 {
	t.Helper()
	require.Equal(t, len(videoIDs), len(types))
	ctx := context.Background()

	var levelID int64
	err := s.WithinTx(ctx, func(q *Queries) error {
		id, err := q.InsertLevel(ctx, NewLevel{UserID: userID, InputsHash: "test-hash"})
		if err != nil {
			return err
		}
		ps := make([]model.Presentation, len(videoIDs))
		for i, vid := range videoIDs {
			ps[i] = model.Presentation{VideoID: vid, Position: i, PresentationFlags: types[i].Flags()}
		}
		levelID = id
		return q.InsertPresentations(ctx, id, ps)
	})
	require.NoError(t, err)
	return levelID
}

func ptr[T any](v T) *T { return &v }
