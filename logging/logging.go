package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/openfluke/ranksort/config"
	"github.com/sirupsen/logrus"
)

// Field keys carried by every job log line, in the order they are printed.
const (
	FieldJob   = "job"
	FieldKind  = "kind"
	FieldCount = "n"
	FieldState = "state"
)

var jobFieldOrder = []string{FieldJob, FieldKind, FieldCount, FieldState}

var log *logrus.Logger

// Init replaces the package logger with one built from c.
func Init(c config.LoggingConfig) error {
	l, err := New(c)
	if err != nil {
		return err
	}
	log = l
	return nil
}

// New builds a logger writing to stderr and/or c.File. An unknown level
// falls back to info. With no destination the logger discards everything.
func New(c config.LoggingConfig) (*logrus.Logger, error) {
	l := logrus.New()

	lvl, err := logrus.ParseLevel(c.Level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		SortingFunc:     sortJobFieldsFirst,
	})

	var writers []io.Writer
	if c.Console {
		writers = append(writers, os.Stderr)
	}
	if c.File != "" {
		if err := os.MkdirAll(filepath.Dir(c.File), 0755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(c.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		writers = append(writers, f)
	}

	switch len(writers) {
	case 0:
		l.SetOutput(io.Discard)
	case 1:
		l.SetOutput(writers[0])
	default:
		l.SetOutput(io.MultiWriter(writers...))
	}
	return l, nil
}

// sortJobFieldsFirst keeps time/level/msg where logrus puts them, then the
// job fields in their fixed order, then anything else alphabetically.
func sortJobFieldsFirst(keys []string) {
	rank := func(k string) int {
		switch k {
		case logrus.FieldKeyTime:
			return 0
		case logrus.FieldKeyLevel:
			return 1
		case logrus.FieldKeyMsg:
			return 2
		}
		if i := slices.Index(jobFieldOrder, k); i >= 0 {
			return 3 + i
		}
		return 3 + len(jobFieldOrder)
	}
	slices.SortStableFunc(keys, func(a, b string) int {
		if ra, rb := rank(a), rank(b); ra != rb {
			return ra - rb
		}
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	})
}

// Get returns the logger instance
func Get() *logrus.Logger {
	if log == nil {
		log = logrus.New()
	}
	return log
}

// WithFields starts an entry carrying structured fields.
func WithFields(fields logrus.Fields) *logrus.Entry {
	return Get().WithFields(fields)
}

// ForJob starts an entry tagged with a sort job's id, element kind and length.
func ForJob(id uint64, kind string, n int) *logrus.Entry {
	return Get().WithFields(logrus.Fields{
		FieldJob:   id,
		FieldKind:  kind,
		FieldCount: n,
	})
}

func Debugf(format string, args ...interface{}) {
	Get().Debugf(format, args...)
}

func Infof(format string, args ...interface{}) {
	Get().Infof(format, args...)
}

func Warnf(format string, args ...interface{}) {
	Get().Warnf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	Get().Errorf(format, args...)
}
