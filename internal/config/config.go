// Package config reads matchmaker settings through viper.
package config

import (
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

var logger = logrus.WithFields(logrus.Fields{
	"app":       "matchmaking",
	"component": "config",
})

// View is a read-only view of the configuration.
type View interface {
	IsSet(string) bool
	GetString(string) string
	GetInt(string) int
	GetFloat64(string) float64
	GetBool(string) bool
	GetDuration(string) time.Duration
	GetStringMapString(string) map[string]string
}

// Mutable is a read-write view, used by tests to override values.
type Mutable interface {
	Set(string, interface{})
	View
}

// SetDefaults installs every default the server relies on.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.level", "info")

	v.SetDefault("matchmaking.percentile", 0.10)
	v.SetDefault("matchmaking.primary_mode", "ranked")
	v.SetDefault("matchmaking.tick_interval", 15*time.Second)
	v.SetDefault("matchmaking.widening_period", 180*time.Second)
	v.SetDefault("matchmaking.min_opponent_wait", 120*time.Second)
	v.SetDefault("matchmaking.max_matches_per_tick", 1)

	v.SetDefault("ratings.default", 1400)
	v.SetDefault("ratings.refresh_interval", time.Minute)
	v.SetDefault("ratings.timeout", 2*time.Second)

	v.SetDefault("notify.channel", "matchmaking")
	v.SetDefault("notify.role_after", 300*time.Second)
	v.SetDefault("notify.reminder_after", 900*time.Second)
	v.SetDefault("notify.roles", map[string]string{
		"ranked":   "@Ranked",
		"unranked": "@Unranked",
		"stars":    "@Stars",
	})

	v.SetDefault("transport.write_timeout", 2*time.Second)
}

// PositiveDuration reads key and rejects zero or negative values, which would
// make a ticker panic.
func PositiveDuration(v View, key string) (time.Duration, error) {
	d := v.GetDuration(key)
	if d <= 0 {
		return 0, errors.Errorf("%s must be positive, got %v", key, d)
	}
	return d, nil
}

// New returns a Mutable holding only defaults. Tests build on it.
func New() Mutable {
	v := viper.New()
	SetDefaults(v)
	return v
}

// Read loads defaults, then the optional file at path (or config/matchmaker.*
// when path is empty), then MM_* environment overrides. The file is watched
// and re-read on change.
func Read(path string) (View, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix("MM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("config")
		v.SetConfigName("matchmaker")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, errors.Wrap(err, "reading config file")
		}
		logger.Info("No config file found, using defaults and environment.")
		return v, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(event fsnotify.Event) {
		logger.WithFields(logrus.Fields{
			"filename":  event.Name,
			"operation": event.Op,
		}).Info("Server configuration changed.")
	})
	return v, nil
}
