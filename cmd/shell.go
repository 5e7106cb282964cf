// Package cmd provides the helpers that underlie the ocsp-fetcher binary:
// fatal error handling, logger construction, and config file reading. The
// idea is to keep the command file itself small.
package cmd

import (
	"fmt"
	"log/syslog"
	"os"

	blog "github.com/letsencrypt/ocsp-fetcher/log"
)

// Fail prints a message to stderr and exits with status 1.
func Fail(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}

// FailOnError exits and prints an error message if we encountered a problem.
func FailOnError(err error, msg string) {
	if err != nil {
		Fail(fmt.Sprintf("%s: %s", msg, err))
	}
}

// SyslogConfig controls where logs go and how much gets logged. Levels are
// syslog priorities; -1 disables a destination.
type SyslogConfig struct {
	StdoutLevel int `validate:"min=-1,max=7"`
	SyslogLevel int `validate:"min=-1,max=7"`
}

// NewLogger builds a Logger from the given config. A negative syslog level
// disables syslog entirely and logs go to stdout only. When syslog is wanted
// but unreachable (containers and some hook contexts have no syslog socket),
// it degrades to stdout instead of refusing to run.
func NewLogger(cfg SyslogConfig) blog.Logger {
	return newLogger(cfg, func() (*syslog.Writer, error) {
		return syslog.Dial("", "", syslog.LOG_INFO|syslog.LOG_LOCAL0, "ocsp-fetcher")
	})
}

func newLogger(cfg SyslogConfig, dial func() (*syslog.Writer, error)) blog.Logger {
	if cfg.SyslogLevel < 0 {
		return blog.NewStdoutLogger(cfg.StdoutLevel)
	}
	syslogger, err := dial()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cannot connect to syslog, logging to stdout only: %s\n", err)
		return blog.NewStdoutLogger(cfg.StdoutLevel)
	}
	logger, err := blog.New(syslogger, cfg.StdoutLevel, cfg.SyslogLevel)
	FailOnError(err, "Could not build logger")
	return logger
}
