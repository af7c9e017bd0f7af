package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/memento/internal/engine"
	"github.com/roach88/memento/internal/model"
	"github.com/roach88/memento/internal/sequence"
	"github.com/roach88/memento/internal/store"
	"github.com/roach88/memento/internal/testutil"
)

// TamperedURL replaces the first video of tampered submissions.
const TamperedURL = "https://tampered.example/clip.mp4"

// Harness executes one scenario against a private store and engine.
type Harness struct {
	store  *store.Store
	engine *engine.Engine
	tmpl   sequence.Template

	levels map[string]model.LevelInputs
	last   map[string]string // worker -> alias of their latest allocation
	anon   int
}

// Run executes a scenario in a fresh in-memory database and evaluates its
// expect clauses and assertions. A non-nil error means the run itself
// failed, not that the scenario did.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	return RunWithStore(context.Background(), st, scenario)
}

// RunWithStore executes a scenario against st, which should be empty.
func RunWithStore(ctx context.Context, st *store.Store, scenario *Scenario) (*Result, error) {
	tmpl := testutil.Template()
	if scenario.Template != "" {
		t, err := sequence.LoadFile(scenario.Template)
		if err != nil {
			return nil, fmt.Errorf("failed to load template: %w", err)
		}
		tmpl = t
	}

	if scenario.Videos > 0 {
		uris := make([]string, scenario.Videos)
		for i := range uris {
			uris[i] = testutil.VideoURI(i + 1)
		}
		if _, err := st.Queries().SeedVideos(ctx, uris); err != nil {
			return nil, fmt.Errorf("failed to seed videos: %w", err)
		}
	}

	h := &Harness{
		store: st,
		engine: engine.New(st, scenario.Policy.Apply(engine.DefaultPolicy()),
			engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))),
		tmpl:   tmpl,
		levels: map[string]model.LevelInputs{},
		last:   map[string]string{},
	}

	result := NewResult()
	for i, step := range scenario.Flow {
		ev, err := h.execute(ctx, step)
		if err != nil {
			return nil, fmt.Errorf("flow[%d] %s: %w", i, step.Op, err)
		}
		result.addEvent(ev)
		if msg := checkExpect(i, step, ev); msg != "" {
			result.AddError(msg)
		}
	}

	actx := &AssertionContext{Store: st, Ctx: ctx}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) execute(ctx context.Context, step FlowStep) (TraceEvent, error) {
	ev := TraceEvent{Op: step.Op, Worker: step.Worker}

	var (
		res map[string]any
		err error
	)
	switch step.Op {
	case OpUser:
		res, err = h.user(ctx, step)
	case OpAllocate:
		ev.Level = h.alias(step)
		res, err = h.allocate(ctx, step, ev.Level)
	case OpAnswer:
		ev.Level, err = h.levelAlias(step)
		if err == nil {
			res, err = h.answer(ctx, step, ev.Level)
		}
	case OpSubmit:
		ev.Level, err = h.levelAlias(step)
		if err == nil {
			err = h.engine.SubmitLevel(ctx, h.levels[ev.Level].LevelID, step.DurationMsec, step.Feedback)
		}
	case OpBackdate:
		ev.Level = step.Level
		err = h.backdate(ctx, step)
	case OpReconcile:
		var n int64
		n, err = h.engine.FixLabelCounts(ctx)
		res = map[string]any{"changed": n}
	default:
		err = fmt.Errorf("unknown op %q", step.Op)
	}

	if err != nil {
		kind, ok := engine.KindOf(err)
		if !ok {
			return TraceEvent{}, err
		}
		ev.Case = string(kind)
		return ev, nil
	}
	ev.Case = CaseOK
	ev.Result = res
	return ev, nil
}

func (h *Harness) user(ctx context.Context, step FlowStep) (map[string]any, error) {
	info, err := h.engine.GetUserInfo(ctx, step.Worker)
	if err != nil {
		return nil, err
	}
	return map[string]any{"level": info.Level}, nil
}

func (h *Harness) allocate(ctx context.Context, step FlowStep, alias string) (map[string]any, error) {
	inputs, err := h.engine.GetVideos(ctx, engine.AllocateArgs{WorkerID: step.Worker}, h.tmpl.Clone())
	if err != nil {
		return nil, err
	}
	h.levels[alias] = inputs
	h.last[step.Worker] = alias
	return map[string]any{
		"level":   inputs.Level,
		"levelId": inputs.LevelID,
		"videos":  len(inputs.Videos),
	}, nil
}

func (h *Harness) answer(ctx context.Context, step FlowStep, alias string) (map[string]any, error) {
	inputs := h.levels[alias]
	correct := step.Correct == nil || *step.Correct
	responses := testutil.Answers(inputs, correct)

	echoed := inputs
	if step.Tamper && len(inputs.Videos) > 0 {
		echoed.Videos = append([]model.VideoRef(nil), inputs.Videos...)
		echoed.Videos[0].URL = TamperedURL
	}

	res, err := h.engine.SaveResponses(ctx, engine.SaveArgs{
		WorkerID:    step.Worker,
		LevelID:     inputs.LevelID,
		Responses:   responses,
		LevelInputs: echoed,
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"passed":          res.Passed,
		"numLives":        res.NumLives,
		"completedLevels": len(res.CompletedLevels),
	}, nil
}

func (h *Harness) backdate(ctx context.Context, step FlowStep) error {
	d, err := time.ParseDuration(step.By)
	if err != nil {
		return err
	}
	_, err = h.store.DB().ExecContext(ctx,
		`UPDATE levels SET created_at = created_at - ? WHERE id = ?`,
		d.Milliseconds(), h.levels[step.Level].LevelID)
	return err
}

// alias names an allocation, generating one when the step has none.
func (h *Harness) alias(step FlowStep) string {
	if step.As != "" {
		return step.As
	}
	h.anon++
	return fmt.Sprintf("level-%d", h.anon)
}

// levelAlias resolves the level a step refers to.
func (h *Harness) levelAlias(step FlowStep) (string, error) {
	alias := step.Level
	if alias == "" {
		alias = h.last[step.Worker]
	}
	if _, ok := h.levels[alias]; !ok {
		if alias == "" {
			return "", errors.New("worker has no allocated level")
		}
		return "", fmt.Errorf("level %q was never allocated", alias)
	}
	return alias, nil
}

func checkExpect(i int, step FlowStep, ev TraceEvent) string {
	if step.Expect == nil {
		return ""
	}
	if ev.Case != step.Expect.Case {
		return fmt.Sprintf("flow[%d] %s: expected case %s, got %s", i, step.Op, step.Expect.Case, ev.Case)
	}
	for key, want := range step.Expect.Result {
		got, ok := ev.Result[key]
		if !ok {
			return fmt.Sprintf("flow[%d] %s: result has no field %q", i, step.Op, key)
		}
		if !valuesEqual(want, got) {
			return fmt.Sprintf("flow[%d] %s: result %q = %v, want %v", i, step.Op, key, got, want)
		}
	}
	return ""
}
