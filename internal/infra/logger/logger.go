// internal/infra/logger/logger.go
package logger

import (
	"os"
	"strings"

	"campsite_notification_bot/internal/infra/config"

	"github.com/sirupsen/logrus"
)

// Log is the global logger instance
var Log = logrus.New()

// Init applies log_level and environment from the configuration.
// An unknown level falls back to info.
func Init(cfg *config.AppConfig) {
	Log.SetOutput(os.Stdout)
	Log.SetFormatter(formatterFor(cfg.Environment))

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	Log.SetLevel(level)

	if err != nil {
		Log.WithError(err).WithField("log_level", cfg.LogLevel).Warn("Invalid log level, using info")
	}
}

// formatterFor returns JSON output for deployed environments and
// human-readable text everywhere else.
func formatterFor(environment string) logrus.Formatter {
	switch strings.ToLower(environment) {
	case "production", "staging":
		return &logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"}
	default:
		return &logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05"}
	}
}

// Component returns an entry tagged with the component name, the way every
// package in the bot receives its logger.
func Component(name string) *logrus.Entry {
	return Log.WithField("component", name)
}
