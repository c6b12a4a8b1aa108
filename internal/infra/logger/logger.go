// internal/infra/logger/logger.go
package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"troubadour_scheduler/internal/infra/config"
)

const serviceName = "troubadour-scheduler"

// Log is the process-wide logger. Components log through For.
var Log = logrus.New()

var base = Log.WithField("service", serviceName)

// Init applies the configured level and picks JSON output for production and
// staging, text otherwise. An unknown level falls back to info.
func Init(cfg *config.AppConfig) {
	Log.SetOutput(os.Stdout)
	level, ok := parseLevel(cfg.LogLevel)
	Log.SetLevel(level)

	env := strings.ToLower(cfg.Environment)
	switch env {
	case "production", "staging":
		Log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
			FieldMap:        logrus.FieldMap{logrus.FieldKeyMsg: "message"},
		})
	default:
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	base = Log.WithFields(logrus.Fields{"service": serviceName, "environment": env})
	if !ok {
		base.Warnf("Invalid log level %q, using info", cfg.LogLevel)
	}
	base.Debugf("Log level set to %s", Log.GetLevel())
}

// parseLevel treats an empty level as info without complaint.
func parseLevel(s string) (logrus.Level, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return logrus.InfoLevel, true
	}
	level, err := logrus.ParseLevel(s)
	if err != nil {
		return logrus.InfoLevel, false
	}
	return level, true
}

// For returns an entry tagged with the component name.
func For(component string) *logrus.Entry {
	return base.WithField("component", component)
}
