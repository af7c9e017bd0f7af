package engine

import "time"

// Policy holds every tunable the engine consults. It is passed to New and
// never read from globals.
type Policy struct {
	// EnableBlockUsers rejects workers with fewer than one life.
	EnableBlockUsers bool

	// ErrorOnFastSubmit rejects submissions faster than
	// MinTimePerResponse per answered clip.
	ErrorOnFastSubmit bool

	// EnforceSameInputs rejects submissions whose echoed level inputs do
	// not match the digest stored at allocation.
	EnforceSameInputs bool

	// RewardAmount is recorded against a scored level when the caller
	// supplies none.
	RewardAmount float64

	// MaxLevelTime bounds the time between allocation and submission. It
	// also sets how long a pending level keeps its label claims.
	MaxLevelTime time.Duration

	// MinTimePerResponse is the fast-submit threshold per answered clip.
	MinTimePerResponse time.Duration

	// LevelsPerLife awards a life every LevelsPerLife scored levels.
	LevelsPerLife int

	// DefaultLives is the number of lives a new worker starts with.
	DefaultLives int
}

// Default policy values.
const (
	DefaultRewardAmount       = 1.0
	DefaultMaxLevelTime       = time.Hour
	DefaultMinTimePerResponse = time.Second
	DefaultLevelsPerLife      = 50
	DefaultLives              = 2
)

// DefaultPolicy returns the production policy: every guard enabled.
func DefaultPolicy() Policy {
	return Policy{
		EnableBlockUsers:   true,
		ErrorOnFastSubmit:  true,
		EnforceSameInputs:  true,
		RewardAmount:       DefaultRewardAmount,
		MaxLevelTime:       DefaultMaxLevelTime,
		MinTimePerResponse: DefaultMinTimePerResponse,
		LevelsPerLife:      DefaultLevelsPerLife,
		DefaultLives:       DefaultLives,
	}
}
