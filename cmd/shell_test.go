package cmd

import (
	"errors"
	"log/syslog"
	"testing"

	"github.com/letsencrypt/ocsp-fetcher/test"
)

func TestNewLoggerSyslogDisabled(t *testing.T) {
	dialed := false
	logger := newLogger(SyslogConfig{StdoutLevel: 6, SyslogLevel: -1}, func() (*syslog.Writer, error) {
		dialed = true
		return nil, nil
	})
	test.Assert(t, logger != nil, "expected a logger")
	test.Assert(t, !dialed, "syslog dialed despite being disabled")
}

func TestNewLoggerSyslogUnreachable(t *testing.T) {
	logger := newLogger(SyslogConfig{StdoutLevel: 6, SyslogLevel: 6}, func() (*syslog.Writer, error) {
		return nil, errors.New("no such socket")
	})
	test.Assert(t, logger != nil, "expected a stdout fallback logger")
	// The fallback logger must be usable.
	logger.Info("still alive")
}
