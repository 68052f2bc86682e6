// Package logging configures the process logger. The terminal belongs to the
// UI, so entries go to a file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Configure returns a logger writing format ("text" or "json") entries at
// level to file. The returned closer releases the file.
func Configure(format, level, file string) (*logrus.Logger, io.Closer, error) {
	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, nil, fmt.Errorf("could not parse log level: %w", err)
	}

	if dir := filepath.Dir(file); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log directory: %w", err)
		}
	}
	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	logger := New(format, logLevel, f)
	return logger, f, nil
}

// New creates a logger with the severity/message field names.
func New(format string, level logrus.Level, out io.Writer) *logrus.Logger {
	fieldMap := logrus.FieldMap{
		logrus.FieldKeyLevel: "severity",
		logrus.FieldKeyMsg:   "message",
	}

	logger := logrus.New()
	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{
			FieldMap: fieldMap,
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			DisableColors: true,
			FieldMap:      fieldMap,
		})
	}
	logger.SetLevel(level)
	logger.SetOutput(out)
	return logger
}
