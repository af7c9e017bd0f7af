package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/memento/internal/model"
)

func TestInsertLevel_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	q := s.Queries()

	u, err := q.ResolveUser(ctx, "w", 2)
	require.NoError(t, err)

	id, err := q.InsertLevel(ctx, NewLevel{
		UserID:        u.ID,
		AssignmentRef: ptr("aid"),
		HitRef:        ptr("hid"),
		InputsHash:    "abc",
		Env:           model.ClientEnv{OS: "Linux", DeviceType: "desktop"},
	})
	require.NoError(t, err)

	l, err := q.Level(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, u.ID, l.UserID)
	assert.Equal(t, "aid", *l.AssignmentRef)
	assert.Equal(t, "hid", *l.HitRef)
	assert.Equal(t, "abc", l.InputsHash)
	assert.Equal(t, "Linux", l.Env.OS)
	assert.Equal(t, "", l.Env.Browser)
	assert.False(t, l.Scored())
	assert.Nil(t, l.Reward)
	assert.Greater(t, l.CreatedAtMillis, int64(0))
}

func TestLevel_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.Queries().Level(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInsertPresentations_UniquePosition(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	seedVideos(t, s, 2)
	q := s.Queries()

	u, err := q.ResolveUser(ctx, "w", 2)
	require.NoError(t, err)
	id, err := q.InsertLevel(ctx, NewLevel{UserID: u.ID, InputsHash: "h"})
	require.NoError(t, err)

	err = q.InsertPresentations(ctx, id, []model.Presentation{
		{VideoID: 1, Position: 0},
		{VideoID: 2, Position: 0},
	})
	assert.Error(t, err)
}

func TestSaveResponses_AndPresentations(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	seedVideos(t, s, 3)
	q := s.Queries()

	u, err := q.ResolveUser(ctx, "w", 2)
	require.NoError(t, err)
	levelID := createTestLevel(t, s, u.ID, []int64{1, 2, 1},
		[]model.ContentType{model.Target, model.Vig, model.TargetRepeat})

	has, err := q.HasResponses(ctx, levelID)
	require.NoError(t, err)
	assert.False(t, has)

	n, err := q.CountPresentations(ctx, levelID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	err = q.SaveResponses(ctx, levelID, []model.Response{
		{Response: ptr(false), StartMsec: ptr(0.0), DurationMsec: ptr(250.5)},
		{MediaErrorCode: ptr(4), StartMsec: ptr(3000.0), DurationMsec: ptr(0.0)},
	})
	require.NoError(t, err)

	has, err = q.HasResponses(ctx, levelID)
	require.NoError(t, err)
	assert.True(t, has)

	ps, err := q.Presentations(ctx, levelID)
	require.NoError(t, err)
	require.Len(t, ps, 3)

	assert.Equal(t, model.PresentationFlags{Targeted: true}, ps[0].PresentationFlags)
	require.NotNil(t, ps[0].Response)
	assert.False(t, *ps[0].Response)
	assert.Equal(t, 250.5, *ps[0].DurationMsec)

	assert.True(t, ps[1].Vigilance)
	assert.Nil(t, ps[1].Response)
	require.NotNil(t, ps[1].MediaErrorCode)
	assert.Equal(t, 4, *ps[1].MediaErrorCode)

	assert.Equal(t, model.PresentationFlags{Duplicate: true, Targeted: true}, ps[2].PresentationFlags)
	assert.Nil(t, ps[2].Response, "unanswered positions stay NULL")
}

func TestMarkScored_AtMostOnce(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	q := s.Queries()

	u, err := q.ResolveUser(ctx, "w", 2)
	require.NoError(t, err)
	id, err := q.InsertLevel(ctx, NewLevel{UserID: u.ID, InputsHash: "h"})
	require.NoError(t, err)

	ok, err := q.MarkScored(ctx, id, model.Scores{OverallScore: 0.9, VigilanceScore: 1, FalsePositiveRate: 0.1}, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = q.MarkScored(ctx, id, model.Scores{OverallScore: 0.1}, 5)
	require.NoError(t, err)
	assert.False(t, ok)

	l, err := q.Level(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0.9, *l.Score)
	assert.Equal(t, 1.0, *l.Reward)
}

func TestCompletedLevels_ScoringOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	q := s.Queries()

	u, err := q.ResolveUser(ctx, "w", 2)
	require.NoError(t, err)

	first, err := q.InsertLevel(ctx, NewLevel{UserID: u.ID, InputsHash: "h"})
	require.NoError(t, err)
	second, err := q.InsertLevel(ctx, NewLevel{UserID: u.ID, InputsHash: "h"})
	require.NoError(t, err)

	done, err := q.CompletedLevels(ctx, u.ID)
	require.NoError(t, err)
	assert.NotNil(t, done)
	assert.Empty(t, done)

	// Score the newer level first.
	_, err = q.MarkScored(ctx, second, model.Scores{OverallScore: 0.2}, 2)
	require.NoError(t, err)
	_, err = q.MarkScored(ctx, first, model.Scores{OverallScore: 0.8}, 1)
	require.NoError(t, err)

	done, err = q.CompletedLevels(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []model.CompletedLevel{{Score: 0.2, Reward: 2}, {Score: 0.8, Reward: 1}}, done)

	n, err := q.CountScoredLevels(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = q.CountLevels(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestPresentedVideoIDs(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	seedVideos(t, s, 4)

	u, err := s.Queries().ResolveUser(ctx, "w", 2)
	require.NoError(t, err)
	createTestLevel(t, s, u.ID, []int64{2, 2}, []model.ContentType{model.Vig, model.VigRepeat})
	createTestLevel(t, s, u.ID, []int64{4}, []model.ContentType{model.Filler})

	ids, err := s.Queries().PresentedVideoIDs(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 2, 4}, ids)
}

func TestSubmitLevel(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	q := s.Queries()

	u, err := q.ResolveUser(ctx, "w", 2)
	require.NoError(t, err)
	id, err := q.InsertLevel(ctx, NewLevel{UserID: u.ID, InputsHash: "h"})
	require.NoError(t, err)

	ok, err := q.SubmitLevel(ctx, id, 123456, "fun")
	require.NoError(t, err)
	assert.True(t, ok)

	l, err := q.Level(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(123456), *l.DurationMsec)
	assert.Equal(t, "fun", *l.Feedback)

	ok, err = q.SubmitLevel(ctx, id+100, 1, "")
	require.NoError(t, err)
	assert.False(t, ok)
}
