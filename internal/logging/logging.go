// Package logging configures the logrus logging library.
//
// Adapted from Open Match's internal/logging package
// (Copyright 2019 Google LLC, Apache License 2.0).
package logging

import (
	stackdriver "github.com/TV4/logrus-stackdriver-formatter"
	"github.com/sirupsen/logrus"

	"github.com/mssb/matchmaker/internal/config"
)

// ConfigureLogging sets up logrus from the logging section of the config:
//   - log line format (text[default], json or stackdriver)
//   - min log level (trace, debug, info [default], warn, error, fatal, panic)
func ConfigureLogging(cfg config.View) {
	switch cfg.GetString("logging.format") {
	case "stackdriver":
		logrus.SetFormatter(stackdriver.NewFormatter())
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{})
	}

	switch cfg.GetString("logging.level") {
	case "trace":
		logrus.SetLevel(logrus.TraceLevel)
		logrus.Warn("Trace logging level configured. Not recommended for production!")
	case "debug":
		logrus.SetLevel(logrus.DebugLevel)
		logrus.Warn("Debug logging level configured. Not recommended for production!")
	case "warn":
		logrus.SetLevel(logrus.WarnLevel)
	case "error":
		logrus.SetLevel(logrus.ErrorLevel)
	case "fatal":
		logrus.SetLevel(logrus.FatalLevel)
	case "panic":
		logrus.SetLevel(logrus.PanicLevel)
	default:
		logrus.SetLevel(logrus.InfoLevel)
	}
}
