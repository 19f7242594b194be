// Package queue holds the set of players currently waiting for a match.
package queue

import (
	"sync"

	"github.com/mssb/matchmaker/pkg/types"
)

// Store keeps at most one entry per player across all modes. Iteration order
// is the order of the most recent Upsert for each player.
type Store struct {
	mu      sync.Mutex
	order   []string
	entries map[string]types.QueueEntry
}

func NewStore() *Store {
	return &Store{entries: map[string]types.QueueEntry{}}
}

// Upsert inserts e, or replaces the player's previous entry and moves it to
// the back of the order.
func (s *Store) Upsert(e types.QueueEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[e.PlayerID]; ok {
		s.unlink(e.PlayerID)
	}
	s.entries[e.PlayerID] = e
	s.order = append(s.order, e.PlayerID)
}

// Remove reports whether an entry was removed. Absent players are a no-op.
func (s *Store) Remove(playerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[playerID]; !ok {
		return false
	}
	delete(s.entries, playerID)
	s.unlink(playerID)
	return true
}

// Take removes every listed player, but only if all of them are still queued.
// It returns false and leaves the store untouched otherwise.
func (s *Store) Take(playerIDs ...string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range playerIDs {
		if _, ok := s.entries[id]; !ok {
			return false
		}
	}
	for _, id := range playerIDs {
		delete(s.entries, id)
		s.unlink(id)
	}
	return true
}

func (s *Store) Get(playerID string) (types.QueueEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[playerID]
	return e, ok
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Snapshot returns an independent copy of the queue in iteration order.
func (s *Store) Snapshot() []types.QueueEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.QueueEntry, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.entries[id])
	}
	return out
}

// caller holds s.mu
func (s *Store) unlink(playerID string) {
	for i, id := range s.order {
		if id == playerID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}
