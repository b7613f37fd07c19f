package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide logger. Init must run before it is used.
var Log = logrus.New()

// Init configures the global logger with defaults suitable for tests and local runs.
func Init() {
	Configure("info", "text")
}

// Configure sets the level and output format of the global logger.
// Unknown levels fall back to info; format "json" selects the JSON formatter.
func Configure(level, format string) {
	Log.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	if format == "json" {
		Log.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}
