package match

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"github.com/mssb/matchmaker/internal/metrics"
	"github.com/mssb/matchmaker/internal/queue"
	"github.com/mssb/matchmaker/internal/rating"
	"github.com/mssb/matchmaker/pkg/types"
)

var logger = logrus.WithFields(logrus.Fields{
	"app":       "matchmaking",
	"component": "match.engine",
})

// RatingOracle supplies recorded ratings. LastRating returns a usable default
// alongside any error.
type RatingOracle interface {
	LastRating(ctx context.Context, playerID string, mode types.Mode) (int, error)
	Population(mode types.Mode) []int
}

// Transport delivers outbound text. Calls are best effort.
type Transport interface {
	Broadcast(channel, text string) error
	EditStatusMessage(text string) error
	DirectMessage(playerID, text string) error
}

// Engine owns the queue. Queue passes (enqueue, dequeue, tick) run one at a
// time; rating lookups and outbound messages happen outside the pass.
type Engine struct {
	cfg    Config
	queue  *queue.Store
	oracle RatingOracle
	tr     Transport
	policy NotificationPolicy
	now    func() time.Time

	mu       sync.Mutex
	lastTick time.Time

	// statusMu orders status publishes so the last line sent is the newest.
	statusMu sync.Mutex
}

type notice struct {
	kind  Notice
	entry types.QueueEntry
}

func NewEngine(cfg Config, q *queue.Store, oracle RatingOracle, tr Transport) *Engine {
	return &Engine{
		cfg:    cfg,
		queue:  q,
		oracle: oracle,
		tr:     tr,
		policy: NotificationPolicy{RoleAfter: cfg.RoleAfter, ReminderAfter: cfg.ReminderAfter},
		now:    time.Now,
	}
}

// EnterQueue puts the player in mode's queue, replacing any previous entry,
// and tries an immediate pairing. A nil result means the player is waiting.
func (e *Engine) EnterQueue(ctx context.Context, playerID, displayName, mode string) (*types.MatchResult, error) {
	m, err := types.ParseMode(mode)
	if err != nil {
		return nil, err
	}
	r, err := e.oracle.LastRating(ctx, playerID, m)
	if err != nil {
		logger.WithError(err).WithField("player", playerID).Warn("rating lookup failed, using default")
	}

	entry := types.QueueEntry{
		PlayerID:    playerID,
		DisplayName: displayName,
		Rating:      r,
		Mode:        m,
		EnqueuedAt:  e.now(),
	}

	e.mu.Lock()
	e.queue.Upsert(entry)
	window := rating.ComputeRange(r, m, e.cfg.PrimaryMode, e.cfg.Percentile, e.oracle.Population(m))
	res := e.tryMatch(e.queue.Snapshot(), entry, window, 0, entry.EnqueuedAt)
	e.mu.Unlock()

	if res != nil {
		e.announce(res)
	}
	e.publishStatus()
	return res, nil
}

// ExitQueue reports whether the player was waiting. Leaving twice is harmless.
func (e *Engine) ExitQueue(playerID string) bool {
	e.mu.Lock()
	removed := e.queue.Remove(playerID)
	e.mu.Unlock()

	e.publishStatus()
	return removed
}

// OnTick re-evaluates every waiting player with a window widened by their wait.
// Pairings stop once MaxMatchesPerTick is reached; reminders are still
// evaluated for everyone left waiting.
func (e *Engine) OnTick() []types.MatchResult {
	var (
		matches []types.MatchResult
		notices []notice
	)

	e.mu.Lock()
	now := e.now()
	snap := e.queue.Snapshot()
	pool := snap
	prev := e.lastTick
	e.lastTick = now

	for _, entry := range snap {
		if _, ok := e.queue.Get(entry.PlayerID); !ok {
			continue
		}
		elapsed := now.Sub(entry.EnqueuedAt)

		if e.cfg.MaxMatchesPerTick <= 0 || len(matches) < e.cfg.MaxMatchesPerTick {
			pct := rating.Widen(e.cfg.Percentile, elapsed.Seconds(), e.cfg.WideningPeriod.Seconds())
			window := rating.ComputeRange(entry.Rating, entry.Mode, e.cfg.PrimaryMode, pct, e.oracle.Population(entry.Mode))
			if res := e.tryMatch(pool, entry, window, e.cfg.MinOpponentWait, now); res != nil {
				matches = append(matches, *res)
				pool = e.queue.Snapshot()
				continue
			}
		}

		prevElapsed := time.Duration(-1)
		if !prev.IsZero() {
			prevElapsed = prev.Sub(entry.EnqueuedAt)
		}
		for _, kind := range e.policy.Due(prevElapsed, elapsed) {
			notices = append(notices, notice{kind: kind, entry: entry})
		}
	}
	e.mu.Unlock()

	for i := range matches {
		e.announce(&matches[i])
	}
	for _, n := range notices {
		e.notify(n)
	}
	if len(matches) > 0 {
		e.publishStatus()
	}
	return matches
}

// Run calls OnTick every TickInterval until ctx is done.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.OnTick()
		}
	}
}

// Status counts waiting players per mode.
func (e *Engine) Status() types.QueueStatus {
	st := types.QueueStatus{ByMode: map[types.Mode]int{}}
	for _, m := range types.Modes {
		st.ByMode[m] = 0
	}
	for _, entry := range e.queue.Snapshot() {
		st.ByMode[entry.Mode]++
		st.Total++
	}
	return st
}

// StatusText renders a status line for the queue channel.
func StatusText(st types.QueueStatus) string {
	return fmt.Sprintf("There are %d users in the matchmaking queue (%d ranked, %d unranked, %d stars-on)",
		st.Total, st.ByMode[types.Ranked], st.ByMode[types.Unranked], st.ByMode[types.Stars])
}

// caller holds e.mu
func (e *Engine) tryMatch(snap []types.QueueEntry, cand types.QueueEntry, window types.SearchWindow, minWait time.Duration, now time.Time) *types.MatchResult {
	logger.WithFields(logrus.Fields{
		"player":  cand.PlayerID,
		"rating":  cand.Rating,
		"waited":  now.Sub(cand.EnqueuedAt).Round(time.Second),
		"min":     window.Min,
		"max":     window.Max,
		"minWait": minWait,
	}).Debug("searching for opponent")

	oppID, ok := FindMatch(snap, cand.PlayerID, window, minWait, now)
	if !ok {
		return nil
	}
	opp, _ := find(snap, oppID)
	if !e.queue.Take(opp.PlayerID, cand.PlayerID) {
		logger.WithField("player", cand.PlayerID).Debug("pairing abandoned, a player already left")
		return nil
	}
	return &types.MatchResult{
		ID:        xid.New().String(),
		Mode:      cand.Mode,
		Candidate: types.MatchPlayer{PlayerID: cand.PlayerID, DisplayName: cand.DisplayName, Rating: cand.Rating},
		Opponent:  types.MatchPlayer{PlayerID: opp.PlayerID, DisplayName: opp.DisplayName, Rating: opp.Rating},
		At:        now,
	}
}

func (e *Engine) announce(res *types.MatchResult) {
	metrics.MatchesTotal.WithLabelValues(string(res.Mode)).Inc()
	logger.WithFields(logrus.Fields{
		"match":    res.ID,
		"mode":     res.Mode,
		"player":   res.Candidate.PlayerID,
		"opponent": res.Opponent.PlayerID,
	}).Info("match formed")

	text := fmt.Sprintf("We have a match! <@%s> vs <@%s>", res.Candidate.PlayerID, res.Opponent.PlayerID)
	if err := e.tr.Broadcast(e.cfg.Channel, text); err != nil {
		transportFailed(err, "match announcement")
	}
}

func (e *Engine) notify(n notice) {
	var err error
	switch n.kind {
	case NoticeRole:
		role := e.cfg.Roles[n.entry.Mode]
		text := strings.TrimSpace(fmt.Sprintf("%s Someone is looking for a %s match!", role, n.entry.Mode))
		err = e.tr.Broadcast(e.cfg.Channel, text)
	case NoticeReminder:
		text := fmt.Sprintf("You have been in the %s queue for %d minutes. If you are no longer looking for a match, please leave the queue.",
			n.entry.Mode, int(e.cfg.ReminderAfter.Minutes()))
		err = e.tr.DirectMessage(n.entry.PlayerID, text)
	}
	if err != nil {
		transportFailed(err, string(n.kind))
		return
	}
	metrics.NotificationsTotal.WithLabelValues(string(n.kind)).Inc()
}

func (e *Engine) publishStatus() {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()
	st := e.Status()
	for m, n := range st.ByMode {
		metrics.QueueSize.WithLabelValues(string(m)).Set(float64(n))
	}
	if err := e.tr.EditStatusMessage(StatusText(st)); err != nil {
		transportFailed(err, "status")
	}
}

func transportFailed(err error, what string) {
	metrics.TransportFailures.Inc()
	logger.WithError(err).WithField("message", what).Warn("outbound message failed")
}
