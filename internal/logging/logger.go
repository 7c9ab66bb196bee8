package logging

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger provides leveled logging and lightweight timing helpers. The zero
// value discards everything.
type Logger struct {
	entry   *logrus.Entry
	Verbose bool
}

func New(writer io.Writer, verbose bool) Logger {
	base := logrus.New()
	base.SetOutput(writer)
	base.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	base.SetLevel(logrus.InfoLevel)
	if verbose {
		base.SetLevel(logrus.DebugLevel)
	}
	return Logger{entry: logrus.NewEntry(base), Verbose: verbose}
}

// With returns a logger that attaches key=value to every line.
func (l Logger) With(key string, value any) Logger {
	if l.entry == nil {
		return l
	}
	return Logger{entry: l.entry.WithField(key, value), Verbose: l.Verbose}
}

func (l Logger) Infof(format string, args ...any) {
	if l.entry == nil {
		return
	}
	l.entry.Infof(format, args...)
}

func (l Logger) Warnf(format string, args ...any) {
	if l.entry == nil {
		return
	}
	l.entry.Warnf(format, args...)
}

func (l Logger) Verbosef(format string, args ...any) {
	if l.entry == nil || !l.Verbose {
		return
	}
	l.entry.Debugf(format, args...)
}

// Measure returns a stop function that logs the elapsed time when called.
func (l Logger) Measure(label string) func() {
	if !l.Verbose {
		return func() {}
	}
	start := time.Now()
	return func() {
		elapsed := time.Since(start).Round(time.Millisecond)
		l.Verbosef("%s took %s", label, elapsed)
	}
}
