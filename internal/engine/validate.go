package engine

import (
	"time"

	"github.com/roach88/memento/internal/model"
)

// checkTiming enforces the submission window. elapsed is measured on the
// store clock from level creation. When errorOnFast is set, each answered
// clip must account for at least minPerResponse of it.
func checkTiming(workerID string, elapsed time.Duration, answered int, p Policy, errorOnFast bool) error {
	if elapsed > p.MaxLevelTime {
		return errInvalidResults(workerID, "level took too long to complete")
	}
	if errorOnFast && elapsed < time.Duration(answered)*p.MinTimePerResponse {
		return errInvalidResults(workerID, "level was completed too quickly")
	}
	return nil
}

// checkInputs compares the level inputs echoed by the client with what was
// stored at allocation.
func checkInputs(workerID string, level model.Level, inputs model.LevelInputs) error {
	if inputs.LevelID != level.ID {
		return errInvalidResults(workerID, "level inputs do not match level id")
	}
	hash, err := LevelInputsDigest(inputs)
	if err != nil {
		return errInvalidResults(workerID, "level inputs are malformed")
	}
	if hash != level.InputsHash {
		return errInvalidResults(workerID, "level inputs do not match what was served")
	}
	return nil
}

// checkResponses validates the whole list before anything is written.
func checkResponses(workerID string, responses []model.Response, presented int) error {
	if len(responses) > presented {
		return errInvalidResults(workerID, "got %d responses for %d videos", len(responses), presented)
	}
	for i, r := range responses {
		if err := r.Validate(); err != nil {
			return errInvalidResults(workerID, "response %d: %v", i, err)
		}
	}
	return nil
}

// countAnswered counts responses carrying a boolean answer.
func countAnswered(responses []model.Response) int {
	n := 0
	for _, r := range responses {
		if r.Response != nil {
			n++
		}
	}
	return n
}

func millis(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
