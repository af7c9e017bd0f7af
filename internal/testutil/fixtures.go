package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/memento/internal/model"
	"github.com/roach88/memento/internal/sequence"
	"github.com/roach88/memento/internal/store"
)

// NewStore opens a fresh store in a temp dir seeded with n videos named
// VideoURI(1..n). It is closed when the test ends.
func NewStore(t *testing.T, n int) *store.Store {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "memento.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	SeedVideos(t, s, 1, n)
	return s
}

// SeedVideos adds videos VideoURI(from..to) to s.
func SeedVideos(t *testing.T, s *store.Store, from, to int) {
	t.Helper()
	if to < from {
		return
	}

	uris := make([]string, 0, to-from+1)
	for i := from; i <= to; i++ {
		uris = append(uris, VideoURI(i))
	}
	_, err := s.Queries().SeedVideos(context.Background(), uris)
	require.NoError(t, err)
}

// VideoURI is the uri of the i-th seeded video.
func VideoURI(i int) string {
	return fmt.Sprintf("https://cdn.example/clip-%03d.mp4", i)
}

// Template returns a two-target, three-filler template with one vigilance
// pair:
//
//	target0 vig filler target0' vig' target1 filler target1'
func Template() sequence.Template {
	return sequence.Template{
		NTargets: 2,
		NFillers: 3,
		Ordering: []sequence.Slot{
			{Index: 0, Type: model.Target},
			{Index: 2, Type: model.Vig},
			{Index: 3, Type: model.Filler},
			{Index: 0, Type: model.TargetRepeat},
			{Index: 2, Type: model.VigRepeat},
			{Index: 1, Type: model.Target},
			{Index: 4, Type: model.Filler},
			{Index: 1, Type: model.TargetRepeat},
		},
	}
}

// Answers builds one response per video of inputs. A correct answer flags
// exactly the videos whose url appeared earlier in the level.
func Answers(inputs model.LevelInputs, correct bool) []model.Response {
	seen := map[string]bool{}
	out := make([]model.Response, len(inputs.Videos))
	for i, v := range inputs.Videos {
		answer := seen[v.URL]
		if !correct {
			answer = !answer
		}
		seen[v.URL] = true
		out[i] = Answer(answer)
	}
	return out
}

// Answer is a well-formed boolean response.
func Answer(b bool) model.Response {
	start, dur := 0.0, 1500.0
	return model.Response{Response: &b, StartMsec: &start, DurationMsec: &dur}
}

// MediaError is a well-formed media error response.
func MediaError(code int) model.Response {
	start, dur := 0.0, 0.0
	return model.Response{MediaErrorCode: &code, StartMsec: &start, DurationMsec: &dur}
}

// Backdate moves a level's creation time d into the past.
func Backdate(t *testing.T, s *store.Store, levelID int64, d time.Duration) {
	t.Helper()

	_, err := s.DB().ExecContext(context.Background(),
		`UPDATE levels SET created_at = created_at - ? WHERE id = ?`, d.Milliseconds(), levelID)
	require.NoError(t, err)
}

// Labels returns every video's label count keyed by uri.
func Labels(t *testing.T, s *store.Store) map[string]int {
	t.Helper()

	videos, err := s.Queries().Videos(context.Background())
	require.NoError(t, err)
	out := make(map[string]int, len(videos))
	for _, v := range videos {
		out[v.URI] = v.LabelCount
	}
	return out
}
