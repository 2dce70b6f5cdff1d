package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// lineFormatter renders "[time] [LEVL] message key=value ..." lines
type lineFormatter struct {
	TimestampFormat string
}

// Format implements logrus.Formatter
func (f *lineFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	level := strings.ToUpper(entry.Level.String())
	if len(level) > 4 {
		level = level[:4]
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "[%s] [%s] %s", entry.Time.Format(f.TimestampFormat), level, entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

// parseLogLevel maps a level name to a logrus level, defaulting to info
func parseLogLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// initLogger builds the process logger. Entries go to out and, when path is
// set, are appended to that file too. The returned func closes the file.
func initLogger(out io.Writer, level, path string) (*logrus.Logger, func() error, error) {
	logger := logrus.New()
	logger.SetFormatter(&lineFormatter{TimestampFormat: "15:04:05.000"})
	logger.SetLevel(parseLogLevel(level))
	logger.SetOutput(out)

	if path == "" {
		return logger, func() error { return nil }, nil
	}

	file, err := openLogFile(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to open log file %s", path)
	}
	logger.SetOutput(io.MultiWriter(out, file))
	return logger, file.Close, nil
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
}
