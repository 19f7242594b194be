package match

import (
	"time"

	"github.com/mssb/matchmaker/pkg/types"
)

// FindMatch picks the opponent for candidateID from snapshot. An opponent must
// share the candidate's mode, sit inside window, and have waited longer than
// minWait (a zero minWait accepts anyone). The closest rating wins; on equal
// distance the earlier entry in snapshot order wins.
func FindMatch(snapshot []types.QueueEntry, candidateID string, window types.SearchWindow, minWait time.Duration, now time.Time) (string, bool) {
	if len(snapshot) < 2 {
		return "", false
	}
	cand, ok := find(snapshot, candidateID)
	if !ok {
		return "", false
	}

	best, bestDist := "", -1
	for _, o := range snapshot {
		if o.PlayerID == candidateID || o.Mode != cand.Mode || !window.Contains(o.Rating) {
			continue
		}
		if minWait > 0 && now.Sub(o.EnqueuedAt) <= minWait {
			continue
		}
		d := abs(o.Rating - cand.Rating)
		if bestDist < 0 || d < bestDist {
			best, bestDist = o.PlayerID, d
		}
	}
	return best, bestDist >= 0
}

func find(snapshot []types.QueueEntry, playerID string) (types.QueueEntry, bool) {
	for _, e := range snapshot {
		if e.PlayerID == playerID {
			return e, true
		}
	}
	return types.QueueEntry{}, false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
