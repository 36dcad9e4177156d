// Package logging builds the application logger.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Formats
const (
	FormatText = "text"
	FormatJSON = "json"
)

// New returns a logger writing to stderr at level in format.
// An unknown level falls back to info and is reported on the returned logger.
func New(level, format string) *logrus.Logger {
	return NewWithOutput(os.Stderr, level, format)
}

// NewWithOutput is New with an explicit writer.
func NewWithOutput(w io.Writer, level, format string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)

	if strings.EqualFold(format, FormatJSON) {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logger.WithError(err).Warn("Invalid log level, using INFO")
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	return logger
}

// Discard returns a logger that drops everything. Used by tests and library callers.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
