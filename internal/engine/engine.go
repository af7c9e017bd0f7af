package engine

import (
	"log/slog"
	"time"

	"github.com/roach88/memento/internal/model"
	"github.com/roach88/memento/internal/store"
)

// Recorder receives engine events for metrics. Implementations must be
// safe for concurrent use.
type Recorder interface {
	LevelAllocated()
	LevelScored(passed bool)
	Rejected(op, kind string)
	LabelsReconciled(changed int64, took time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) LevelAllocated()                       {}
func (nopRecorder) LevelScored(bool)                      {}
func (nopRecorder) Rejected(string, string)               {}
func (nopRecorder) LabelsReconciled(int64, time.Duration) {}

// Engine serves levels and scores submissions against a store.
//
// Thread-safety: Engine is safe for concurrent use. Concurrent requests are
// serialized by the store's write transactions.
type Engine struct {
	store  *store.Store
	policy Policy
	log    *slog.Logger
	rec    Recorder
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithRecorder sets the metrics recorder. Default: a no-op recorder.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		e.rec = r
	}
}

// New creates an Engine over s governed by p.
func New(s *store.Store, p Policy, opts ...Option) *Engine {
	e := &Engine{
		store:  s,
		policy: p,
		log:    slog.Default(),
		rec:    nopRecorder{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy returns the policy the engine was created with.
func (e *Engine) Policy() Policy {
	return e.policy
}

func (e *Engine) blocked(u model.User) bool {
	return IsBlocked(u.NumLives, e.policy.EnableBlockUsers)
}

// observe logs and counts a finished operation. Business outcomes are
// logged at debug level; internal faults are left to the caller.
func (e *Engine) observe(op string, err error, attrs ...any) {
	kind, ok := KindOf(err)
	if !ok {
		return
	}
	e.rec.Rejected(op, string(kind))
	e.log.Debug("request rejected", append(attrs, "op", op, "kind", kind)...)
}
