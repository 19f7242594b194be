// Package rating turns live rating populations into search windows.
package rating

import (
	"math"
	"sort"

	"github.com/mssb/matchmaker/pkg/types"
)

// Sentinel ratings bracketing every working list so a window can always reach
// the edge of the scale.
const (
	Floor   = 0
	Ceiling = 10000
)

// ComputeRange builds a window around rating covering roughly percentile of
// the population on each side. Non-primary modes search twice as wide.
//
// Ties resolve to the first (highest) index holding rating, so a tied
// candidate's window leans toward stronger opponents.
func ComputeRange(rating int, mode types.Mode, primary types.Mode, percentile float64, population []int) types.SearchWindow {
	if mode != primary {
		percentile *= 2
	}

	list := make([]int, 0, len(population)+3)
	list = append(list, population...)
	list = append(list, rating, Floor, Ceiling)
	sort.Sort(sort.Reverse(sort.IntSlice(list)))

	idx := sort.Search(len(list), func(i int) bool { return list[i] <= rating })
	n := float64(len(list))
	spread := n * percentile

	upper := int(math.RoundToEven(float64(idx) - spread))
	if upper < 0 {
		upper = 0
	}
	lower := int(math.RoundToEven(float64(idx) + spread))
	if lower > len(list)-1 {
		lower = len(list) - 1
	}

	return types.SearchWindow{Min: list[lower], Max: list[upper]}
}

// Widen scales the base percentile linearly with wait time: double width after
// one period, unbounded afterwards.
func Widen(base float64, elapsedSeconds, periodSeconds float64) float64 {
	if periodSeconds <= 0 || elapsedSeconds <= 0 {
		return base
	}
	return base * (1 + elapsedSeconds/periodSeconds)
}
