package types

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Mode is a matchmaking category. Queues are partitioned by mode.
type Mode string

const (
	Ranked   Mode = "ranked"
	Unranked Mode = "unranked"
	Stars    Mode = "stars"
)

// Modes lists every mode in display order.
var Modes = []Mode{Ranked, Unranked, Stars}

// ErrInvalidMode is returned when a player asks for a mode that does not exist.
var ErrInvalidMode = errors.New("invalid game type")

// ParseMode accepts any casing; an empty string selects Ranked.
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Ranked, nil
	}
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", errors.Wrapf(ErrInvalidMode, "%q", s)
}

// Pool names the rating population a mode draws from. Ranked and unranked
// games share the stars-off ladder.
func (m Mode) Pool() string {
	if m == Stars {
		return "stars_on"
	}
	return "stars_off"
}

type JoinRequest struct {
	PlayerID    string `json:"player_id"`
	DisplayName string `json:"display_name"`
	Mode        string `json:"mode"`
}

type LeaveRequest struct {
	PlayerID string `json:"player_id"`
}

// QueueEntry is one waiting player.
type QueueEntry struct {
	PlayerID    string    `json:"player_id"`
	DisplayName string    `json:"display_name"`
	Rating      int       `json:"rating"`
	Mode        Mode      `json:"mode"`
	EnqueuedAt  time.Time `json:"enqueued_at"`
}

// SearchWindow holds inclusive rating bounds.
type SearchWindow struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

func (w SearchWindow) Contains(rating int) bool {
	return rating >= w.Min && rating <= w.Max
}

type MatchPlayer struct {
	PlayerID    string `json:"player_id"`
	DisplayName string `json:"display_name"`
	Rating      int    `json:"rating"`
}

// MatchResult is produced once per pairing and never mutated.
type MatchResult struct {
	ID        string      `json:"id"`
	Mode      Mode        `json:"mode"`
	Candidate MatchPlayer `json:"candidate"`
	Opponent  MatchPlayer `json:"opponent"`
	At        time.Time   `json:"at"`
}

type QueueStatus struct {
	Total  int          `json:"total"`
	ByMode map[Mode]int `json:"by_mode"`
}

type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}
