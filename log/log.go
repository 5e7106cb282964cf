// Package log provides a leveled logger that writes to syslog and mirrors
// messages to stdout, plus a Mock for inspecting log output in tests.
package log

import (
	"fmt"
	"log/syslog"
	"os"
	"path"
	"strings"

	"github.com/jmhodges/clock"
)

// A Logger logs messages with explicit priority levels. It is implemented by
// a logging back-end as provided by New, NewStdoutLogger, or NewMock.
type Logger interface {
	Err(msg string)
	Errf(format string, a ...any)
	Warning(msg string)
	Warningf(format string, a ...any)
	Info(msg string)
	Infof(format string, a ...any)
	Debug(msg string)
	Debugf(format string, a ...any)
}

// impl implements Logger on top of a writer.
type impl struct {
	w writer
}

type writer interface {
	logAtLevel(syslog.Priority, string)
}

// New returns a Logger that writes to the given syslog.Writer and mirrors
// messages at or below stdoutLevel to stdout. syslogLevel limits what is
// forwarded to syslog. Levels are syslog priorities (3=err, 4=warning,
// 6=info, 7=debug); -1 disables a destination entirely.
func New(log *syslog.Writer, stdoutLevel int, syslogLevel int) (Logger, error) {
	if log == nil {
		return nil, fmt.Errorf("syslog writer must not be nil")
	}
	return &impl{&bothWriter{log, stdoutLevel, syslogLevel, clock.New()}}, nil
}

// NewStdoutLogger returns a Logger that writes to stdout only, for use when
// syslog is unavailable or unwanted (e.g. when run interactively or from a
// certbot hook that captures output).
func NewStdoutLogger(level int) Logger {
	return &impl{&stdoutWriter{level, clock.New()}}
}

// bothWriter writes to syslog, and mirrors to stdout subject to level
// filtering.
type bothWriter struct {
	*syslog.Writer
	stdoutLevel int
	syslogLevel int
	clk         clock.Clock
}

func (w *bothWriter) logAtLevel(level syslog.Priority, msg string) {
	var err error

	if int(level) <= w.syslogLevel {
		switch level {
		case syslog.LOG_ERR:
			err = w.Err(msg)
		case syslog.LOG_WARNING:
			err = w.Warning(msg)
		case syslog.LOG_INFO:
			err = w.Info(msg)
		case syslog.LOG_DEBUG:
			err = w.Debug(msg)
		default:
			err = w.Err(fmt.Sprintf("%s (unknown logging level: %d)", msg, int(level)))
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write to syslog: %s (%s)\n", msg, err)
	}

	stdoutLine(w.stdoutLevel, w.clk, level, msg)
}

// stdoutWriter writes to stdout only.
type stdoutWriter struct {
	level int
	clk   clock.Clock
}

func (w *stdoutWriter) logAtLevel(level syslog.Priority, msg string) {
	stdoutLine(w.level, w.clk, level, msg)
}

var levelPrefix = map[syslog.Priority]string{
	syslog.LOG_ERR:     "E",
	syslog.LOG_WARNING: "W",
	syslog.LOG_INFO:    "I",
	syslog.LOG_DEBUG:   "D",
}

func stdoutLine(maxLevel int, clk clock.Clock, level syslog.Priority, msg string) {
	if int(level) > maxLevel {
		return
	}
	prefix, ok := levelPrefix[level]
	if !ok {
		prefix = "?"
	}
	fmt.Printf("%s%s %s %s\n",
		prefix,
		clk.Now().Format("150405"),
		path.Base(os.Args[0]),
		// Keep each log entry on a single line for journald and friends.
		strings.ReplaceAll(msg, "\n", "; "),
	)
}

func (log *impl) Err(msg string) {
	log.w.logAtLevel(syslog.LOG_ERR, msg)
}

func (log *impl) Errf(format string, a ...any) {
	log.Err(fmt.Sprintf(format, a...))
}

func (log *impl) Warning(msg string) {
	log.w.logAtLevel(syslog.LOG_WARNING, msg)
}

func (log *impl) Warningf(format string, a ...any) {
	log.Warning(fmt.Sprintf(format, a...))
}

func (log *impl) Info(msg string) {
	log.w.logAtLevel(syslog.LOG_INFO, msg)
}

func (log *impl) Infof(format string, a ...any) {
	log.Info(fmt.Sprintf(format, a...))
}

func (log *impl) Debug(msg string) {
	log.w.logAtLevel(syslog.LOG_DEBUG, msg)
}

func (log *impl) Debugf(format string, a ...any) {
	log.Debug(fmt.Sprintf(format, a...))
}
