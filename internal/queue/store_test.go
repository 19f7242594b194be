package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mssb/matchmaker/pkg/types"
)

func entry(id string, mode types.Mode, rating int) types.QueueEntry {
	return types.QueueEntry{PlayerID: id, DisplayName: id, Rating: rating, Mode: mode, EnqueuedAt: time.Unix(1000, 0)}
}

func ids(entries []types.QueueEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.PlayerID)
	}
	return out
}

func TestUpsertOrder(t *testing.T) {
	assert := assert.New(t)
	s := NewStore()
	s.Upsert(entry("a", types.Ranked, 1400))
	s.Upsert(entry("b", types.Ranked, 1500))
	s.Upsert(entry("c", types.Stars, 1300))
	assert.Equal([]string{"a", "b", "c"}, ids(s.Snapshot()))

	// Re-entering moves the player to the back and replaces the mode.
	s.Upsert(entry("a", types.Unranked, 1400))
	snap := s.Snapshot()
	assert.Equal([]string{"b", "c", "a"}, ids(snap))
	assert.Equal(types.Unranked, snap[2].Mode)
	assert.Equal(3, s.Len())
}

func TestRemoveIdempotent(t *testing.T) {
	assert := assert.New(t)
	s := NewStore()
	s.Upsert(entry("a", types.Ranked, 1400))
	s.Upsert(entry("b", types.Ranked, 1400))

	assert.True(s.Remove("a"))
	assert.False(s.Remove("a"))
	assert.False(s.Remove("nobody"))
	assert.Equal([]string{"b"}, ids(s.Snapshot()))
}

func TestSnapshotIsIndependent(t *testing.T) {
	s := NewStore()
	s.Upsert(entry("a", types.Ranked, 1400))
	s.Upsert(entry("b", types.Ranked, 1400))

	snap := s.Snapshot()
	s.Remove("a")
	snap[1].Rating = 1

	assert.Len(t, snap, 2)
	e, ok := s.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 1400, e.Rating)
}

func TestTake(t *testing.T) {
	assert := assert.New(t)
	s := NewStore()
	s.Upsert(entry("a", types.Ranked, 1400))
	s.Upsert(entry("b", types.Ranked, 1400))

	assert.False(s.Take("a", "gone"))
	assert.Equal(2, s.Len())

	assert.True(s.Take("b", "a"))
	assert.Equal(0, s.Len())
	assert.False(s.Take("a", "b"))
}
