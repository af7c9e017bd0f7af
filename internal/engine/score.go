package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/memento/internal/model"
	"github.com/roach88/memento/internal/store"
)

// Pass thresholds.
const (
	PassOverallScore      = 0.7
	PassVigilanceScore    = 0.8
	PassFalsePositiveRate = 0.5
)

// CalcScores scores the presentations of one level. A presentation is right
// when its response equals its duplicate flag, so an unanswered one is never
// right. Media errors are left out of the overall score only.
func CalcScores(ps []model.Presentation) model.Scores {
	var (
		right, all             int
		vigRight, vigAll       int
		falsePos, nonDuplicate int
	)
	for _, p := range ps {
		correct := p.Response != nil && *p.Response == p.Duplicate
		if p.MediaErrorCode == nil {
			all++
			if correct {
				right++
			}
		}
		if p.Vigilance && p.Duplicate {
			vigAll++
			if correct {
				vigRight++
			}
		}
		if !p.Duplicate {
			nonDuplicate++
			if p.Response != nil && *p.Response {
				falsePos++
			}
		}
	}

	s := model.Scores{
		OverallScore:      ratio(right, all, 1),
		VigilanceScore:    ratio(vigRight, vigAll, 1),
		FalsePositiveRate: ratio(falsePos, nonDuplicate, 0),
	}
	s.Passed = DidPass(s.OverallScore, s.VigilanceScore, s.FalsePositiveRate)
	return s
}

// DidPass applies the pass thresholds.
func DidPass(overall, vigilance, falsePositiveRate float64) bool {
	return overall > PassOverallScore &&
		vigilance > PassVigilanceScore &&
		falsePositiveRate < PassFalsePositiveRate
}

func ratio(n, d int, empty float64) float64 {
	if d == 0 {
		return empty
	}
	return float64(n) / float64(d)
}

// SaveArgs is one submission. Zero values of the optional fields fall back
// to the engine policy.
type SaveArgs struct {
	WorkerID    string
	LevelID     int64
	Responses   []model.Response
	LevelInputs model.LevelInputs

	// Reward overrides Policy.RewardAmount.
	Reward *float64

	// LevelsPerLife overrides Policy.LevelsPerLife when positive.
	LevelsPerLife int

	// ErrorOnFastSubmit overrides Policy.ErrorOnFastSubmit.
	ErrorOnFastSubmit *bool
}

// SaveResult is returned after a level is scored.
type SaveResult struct {
	model.Scores
	NumLives        int                    `json:"numLives"`
	CompletedLevels []model.CompletedLevel `json:"completedLevels"`
}

// SaveResponses validates a submission against its level, scores it and
// updates the worker's lives. Validation runs on the whole submission
// before anything is written, and the writes happen in one transaction
// that only succeeds if the level is still unscored; a level is therefore
// scored at most once even under concurrent submissions.
func (e *Engine) SaveResponses(ctx context.Context, args SaveArgs) (result SaveResult, err error) {
	defer func() { e.observe("save", err, "worker_id", args.WorkerID, "level_id", args.LevelID) }()

	if args.WorkerID == "" {
		return SaveResult{}, errUnauthenticated()
	}

	reward := e.policy.RewardAmount
	if args.Reward != nil {
		reward = *args.Reward
	}
	levelsPerLife := e.policy.LevelsPerLife
	if args.LevelsPerLife > 0 {
		levelsPerLife = args.LevelsPerLife
	}
	errorOnFast := e.policy.ErrorOnFastSubmit
	if args.ErrorOnFastSubmit != nil {
		errorOnFast = *args.ErrorOnFastSubmit
	}

	u, err := e.store.Queries().ResolveUser(ctx, args.WorkerID, e.policy.DefaultLives)
	if err != nil {
		return SaveResult{}, fmt.Errorf("save responses: %w", err)
	}
	if e.blocked(u) {
		return SaveResult{}, errBlocked(args.WorkerID)
	}

	err = e.store.WithinTx(ctx, func(q *store.Queries) error {
		level, err := q.Level(ctx, args.LevelID)
		if errors.Is(err, store.ErrNotFound) || (err == nil && level.UserID != u.ID) {
			return errInvalidResults(args.WorkerID, "no such level for this worker")
		}
		if err != nil {
			return err
		}

		if level.Scored() {
			return errInvalidResults(args.WorkerID, "level was already submitted")
		}
		answered, err := q.HasResponses(ctx, level.ID)
		if err != nil {
			return err
		}
		if answered {
			return errInvalidResults(args.WorkerID, "level was already submitted")
		}

		now, err := q.Now(ctx)
		if err != nil {
			return err
		}
		elapsed := millis(now - level.CreatedAtMillis)
		if err := checkTiming(args.WorkerID, elapsed, countAnswered(args.Responses), e.policy, errorOnFast); err != nil {
			return err
		}

		if e.policy.EnforceSameInputs {
			if err := checkInputs(args.WorkerID, level, args.LevelInputs); err != nil {
				return err
			}
		}

		presented, err := q.CountPresentations(ctx, level.ID)
		if err != nil {
			return err
		}
		if err := checkResponses(args.WorkerID, args.Responses, presented); err != nil {
			return err
		}

		if err := q.SaveResponses(ctx, level.ID, args.Responses); err != nil {
			return err
		}
		ps, err := q.Presentations(ctx, level.ID)
		if err != nil {
			return err
		}
		scores := CalcScores(ps)

		ok, err := q.MarkScored(ctx, level.ID, scores, reward)
		if err != nil {
			return err
		}
		if !ok {
			return errInvalidResults(args.WorkerID, "level was already submitted")
		}

		user, err := q.UserByID(ctx, u.ID)
		if err != nil {
			return err
		}
		scored, err := q.CountScoredLevels(ctx, user.ID)
		if err != nil {
			return err
		}
		lives := NextLives(user.NumLives, scored, levelsPerLife, scores.Passed)
		if lives != user.NumLives {
			if err := q.SetLives(ctx, user.ID, lives); err != nil {
				return err
			}
		}

		completed, err := q.CompletedLevels(ctx, user.ID)
		if err != nil {
			return err
		}
		result = SaveResult{Scores: scores, NumLives: lives, CompletedLevels: completed}
		return nil
	})
	if err != nil {
		var be *Error
		if errors.As(err, &be) {
			return SaveResult{}, err
		}
		return SaveResult{}, fmt.Errorf("save responses: %w", err)
	}

	e.rec.LevelScored(result.Passed)
	e.log.Info("level scored",
		"worker_id", args.WorkerID,
		"level_id", args.LevelID,
		"overall", result.OverallScore,
		"passed", result.Passed,
		"lives", result.NumLives,
	)
	return result, nil
}
