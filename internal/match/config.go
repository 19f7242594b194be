package match

import (
	"time"

	"github.com/pkg/errors"

	"github.com/mssb/matchmaker/internal/config"
	"github.com/mssb/matchmaker/pkg/types"
)

// Config tunes the engine. Durations are wall-clock.
type Config struct {
	PrimaryMode     types.Mode
	Percentile      float64
	TickInterval    time.Duration
	WideningPeriod  time.Duration
	MinOpponentWait time.Duration
	// MaxMatchesPerTick caps pairings per scheduler pass; zero or less means no cap.
	MaxMatchesPerTick int

	Channel       string
	Roles         map[types.Mode]string
	RoleAfter     time.Duration
	ReminderAfter time.Duration
}

func DefaultConfig() Config {
	return Config{
		PrimaryMode:       types.Ranked,
		Percentile:        0.10,
		TickInterval:      15 * time.Second,
		WideningPeriod:    180 * time.Second,
		MinOpponentWait:   120 * time.Second,
		MaxMatchesPerTick: 1,
		Channel:           "matchmaking",
		Roles:             map[types.Mode]string{},
		RoleAfter:         300 * time.Second,
		ReminderAfter:     900 * time.Second,
	}
}

// ConfigFromView reads the matchmaking and notify sections.
func ConfigFromView(v config.View) (Config, error) {
	primary, err := types.ParseMode(v.GetString("matchmaking.primary_mode"))
	if err != nil {
		return Config{}, err
	}
	pct := v.GetFloat64("matchmaking.percentile")
	if pct <= 0 || pct > 1 {
		return Config{}, errors.Errorf("matchmaking.percentile must be in (0, 1], got %v", pct)
	}
	tick, err := config.PositiveDuration(v, "matchmaking.tick_interval")
	if err != nil {
		return Config{}, err
	}
	widen, err := config.PositiveDuration(v, "matchmaking.widening_period")
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		PrimaryMode:       primary,
		Percentile:        pct,
		TickInterval:      tick,
		WideningPeriod:    widen,
		MinOpponentWait:   v.GetDuration("matchmaking.min_opponent_wait"),
		MaxMatchesPerTick: v.GetInt("matchmaking.max_matches_per_tick"),
		Channel:           v.GetString("notify.channel"),
		Roles:             map[types.Mode]string{},
		RoleAfter:         v.GetDuration("notify.role_after"),
		ReminderAfter:     v.GetDuration("notify.reminder_after"),
	}
	for k, role := range v.GetStringMapString("notify.roles") {
		m, err := types.ParseMode(k)
		if err != nil {
			return Config{}, err
		}
		cfg.Roles[m] = role
	}
	return cfg, nil
}
