// Package logging sets up the logrus logger shared by the daemon and its adapters.
package logging

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// LogArgs can be embedded in a go-arg Args struct to expose the log level flag.
type LogArgs struct {
	LogLevel string `arg:"-l,--log-level" default:"info" help:"Set the logging level (debug, info, warn, error)"`
}

type customFormatter struct{}

func (f *customFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", strings.ToUpper(entry.Level.String()), entry.Message)
	for _, k := range sortedKeys(entry.Data) {
		fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

// NewLogger returns a logger writing "[LEVEL] message key=value" lines at the given level.
// Unknown levels fall back to info with a warning.
func NewLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(new(customFormatter))
	SetLevel(log, level)
	return log
}

// SetLevel applies a textual level to log.
func SetLevel(log *logrus.Logger, level string) {
	switch strings.ToLower(level) {
	case "debug":
		log.SetLevel(logrus.DebugLevel)
	case "info", "":
		log.SetLevel(logrus.InfoLevel)
	case "warn":
		log.SetLevel(logrus.WarnLevel)
	case "error":
		log.SetLevel(logrus.ErrorLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
		log.Warnf("Unknown log level %q, defaulting to info", level)
	}
}

// Discard returns a logger that drops everything. Used as the default for adapters
// constructed without a logger, and in tests.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func sortedKeys(data logrus.Fields) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
