package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/memento/internal/model"
	"github.com/roach88/memento/internal/sequence"
	"github.com/roach88/memento/internal/store"
)

// AllocateArgs identifies who a level is for.
type AllocateArgs struct {
	WorkerID      string
	AssignmentRef string
	HitRef        string
	Env           model.ClientEnv
}

// GetVideos allocates a new level for a worker from tmpl.
//
// Targets are the tmpl.NTargets least-labelled videos the worker has never
// been shown, ties broken by id; fillers are random never-shown videos.
// Selection, the level and presentation inserts, and the label increments
// for target videos all run in one write transaction, so two concurrent
// allocations for the same worker never share a video.
func (e *Engine) GetVideos(ctx context.Context, args AllocateArgs, tmpl sequence.Template) (inputs model.LevelInputs, err error) {
	defer func() { e.observe("allocate", err, "worker_id", args.WorkerID) }()

	if args.WorkerID == "" {
		return model.LevelInputs{}, errUnauthenticated()
	}
	if err := tmpl.Validate(); err != nil {
		return model.LevelInputs{}, fmt.Errorf("allocate level: template: %w", err)
	}

	u, err := e.store.Queries().ResolveUser(ctx, args.WorkerID, e.policy.DefaultLives)
	if err != nil {
		return model.LevelInputs{}, fmt.Errorf("allocate level: %w", err)
	}

	err = e.store.WithinTx(ctx, func(q *store.Queries) error {
		user, err := q.UserByID(ctx, u.ID)
		if err != nil {
			return err
		}
		if e.blocked(user) {
			return errBlocked(args.WorkerID)
		}

		targets, err := q.UnseenByPriority(ctx, user.ID, tmpl.NTargets)
		if err != nil {
			return err
		}
		random, err := q.UnseenRandom(ctx, user.ID, tmpl.NumVideos())
		if err != nil {
			return err
		}
		fillers := pickFillers(targets, random, tmpl.NFillers)
		if len(targets) < tmpl.NTargets || len(fillers) < tmpl.NFillers {
			return errOutOfVideos(args.WorkerID)
		}
		show := append(targets, fillers...)

		scored, err := q.CountScoredLevels(ctx, user.ID)
		if err != nil {
			return err
		}
		inputs = model.LevelInputs{
			Level:  scored + 1,
			Videos: make([]model.VideoRef, len(tmpl.Ordering)),
		}
		for i, s := range tmpl.Ordering {
			inputs.Videos[i] = model.VideoRef{URL: show[s.Index].URI, Type: s.Type}
		}

		hash, err := LevelInputsDigest(inputs)
		if err != nil {
			return fmt.Errorf("digest level inputs: %w", err)
		}
		levelID, err := q.InsertLevel(ctx, store.NewLevel{
			UserID:        user.ID,
			AssignmentRef: optional(args.AssignmentRef),
			HitRef:        optional(args.HitRef),
			InputsHash:    hash,
			Env:           args.Env,
		})
		if err != nil {
			return err
		}
		inputs.LevelID = levelID

		if err := q.InsertPresentations(ctx, levelID, presentations(tmpl, show)); err != nil {
			return err
		}
		return q.IncrementLabels(ctx, targetVideoIDs(tmpl, show))
	})
	if err != nil {
		var be *Error
		if errors.As(err, &be) {
			return model.LevelInputs{}, err
		}
		return model.LevelInputs{}, fmt.Errorf("allocate level: %w", err)
	}

	e.rec.LevelAllocated()
	e.log.Debug("level allocated",
		"worker_id", args.WorkerID,
		"level_id", inputs.LevelID,
		"level", inputs.Level,
		"videos", len(inputs.Videos),
	)
	return inputs, nil
}

// pickFillers returns the first n videos of random that are not targets.
func pickFillers(targets, random []model.Video, n int) []model.Video {
	taken := make(map[int64]bool, len(targets))
	for _, v := range targets {
		taken[v.ID] = true
	}
	fillers := make([]model.Video, 0, n)
	for _, v := range random {
		if len(fillers) == n {
			break
		}
		if !taken[v.ID] {
			fillers = append(fillers, v)
		}
	}
	return fillers
}

// presentations maps each template slot to its video and ground-truth flags.
func presentations(tmpl sequence.Template, show []model.Video) []model.Presentation {
	ps := make([]model.Presentation, len(tmpl.Ordering))
	for pos, s := range tmpl.Ordering {
		ps[pos] = model.Presentation{
			VideoID:           show[s.Index].ID,
			Position:          pos,
			PresentationFlags: s.Type.Flags(),
		}
	}
	return ps
}

// targetVideoIDs lists videos shown as a first-time target. Repeats do not
// count again.
func targetVideoIDs(tmpl sequence.Template, show []model.Video) []int64 {
	var ids []int64
	for _, s := range tmpl.Ordering {
		if s.Type == model.Target {
			ids = append(ids, show[s.Index].ID)
		}
	}
	return ids
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
