package sequence

import (
	"cmp"
	"slices"

	"github.com/roach88/memento/internal/model"
)

// LongLag is the target-to-repeat distance, in positions, counted as long.
const LongLag = 150

// OrderIndexesByLag renumbers target indexes in place so the lowest index
// has the largest distance between a target and its repeat. Because the
// allocator gives index 0 the lowest label count, the most under-used
// videos get the hardest memory test. Returns how many targets have a lag
// of at least LongLag.
//
// Target indexes must occupy [0, NTargets).
func OrderIndexesByLag(ordering []Slot) int {
	lags := map[int]int{}
	for pos, s := range ordering {
		switch s.Type {
		case model.Target:
			lags[s.Index] = pos
		case model.TargetRepeat:
			lags[s.Index] = pos - lags[s.Index]
		}
	}

	indexes := make([]int, 0, len(lags))
	for idx := range lags {
		indexes = append(indexes, idx)
	}
	slices.SortFunc(indexes, func(a, b int) int {
		if c := cmp.Compare(lags[b], lags[a]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})

	renumber := make(map[int]int, len(indexes))
	for newIdx, idx := range indexes {
		renumber[idx] = newIdx
	}
	for i := range ordering {
		if n, ok := renumber[ordering[i].Index]; ok {
			ordering[i].Index = n
		}
	}

	long := 0
	for _, lag := range lags {
		if lag >= LongLag {
			long++
		}
	}
	return long
}
