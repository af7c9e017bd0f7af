package engine

// NextLives returns a worker's lives after scoring a level.
//
// scored counts the worker's scored levels including this one. The first
// level moves lives by one in the direction of the outcome. After that a
// life is awarded every levelsPerLife levels and one is taken for every
// failed level; both can apply to the same level. There is no floor.
func NextLives(numLives, scored, levelsPerLife int, passed bool) int {
	if scored == 1 {
		if passed {
			return numLives + 1
		}
		return numLives - 1
	}

	if levelsPerLife > 0 && scored%levelsPerLife == 0 {
		numLives++
	}
	if !passed {
		numLives--
	}
	return numLives
}

// IsBlocked reports whether a worker with numLives may no longer play.
func IsBlocked(numLives int, enforce bool) bool {
	return enforce && numLives < 1
}
