package log

import (
	"log/syslog"
	"regexp"
	"sync"
)

// NewMock returns a Logger that stores all messages in memory for inspection
// by test functions.
func NewMock() *Mock {
	return &Mock{impl{&mockWriter{}}}
}

// Mock is a Logger backed by an in-memory buffer.
type Mock struct {
	impl
}

// LogMessage is a log entry that has been sent to a Mock.
type LogMessage struct {
	Priority syslog.Priority
	Message  string
}

var levelName = map[syslog.Priority]string{
	syslog.LOG_ERR:     "ERR",
	syslog.LOG_WARNING: "WARNING",
	syslog.LOG_INFO:    "INFO",
	syslog.LOG_DEBUG:   "DEBUG",
}

func (lm *LogMessage) String() string {
	return levelName[lm.Priority&7] + ": " + lm.Message
}

// mockWriter implements writer, appending to a mutex-guarded slice instead of
// sending anywhere.
type mockWriter struct {
	mu     sync.Mutex
	logged []*LogMessage
}

func (w *mockWriter) logAtLevel(p syslog.Priority, msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.logged = append(w.logged, &LogMessage{Priority: p, Message: msg})
}

// GetAll returns all LogMessages logged since creation or the last Clear.
// The caller must not modify the returned slice or its elements.
func (m *Mock) GetAll() []*LogMessage {
	w := m.w.(*mockWriter)
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.logged
}

// GetAllMatching returns all LogMessages whose rendered form ("LEVEL: text")
// matches the given regexp. The regexp is accepted as a string and compiled
// on the fly, because convenience is more important than performance here.
func (m *Mock) GetAllMatching(reString string) []*LogMessage {
	re := regexp.MustCompile(reString)
	var matches []*LogMessage
	for _, logMsg := range m.GetAll() {
		if re.MatchString(logMsg.String()) {
			matches = append(matches, logMsg)
		}
	}
	return matches
}

// Clear resets the log buffer.
func (m *Mock) Clear() {
	w := m.w.(*mockWriter)
	w.mu.Lock()
	defer w.mu.Unlock()
	w.logged = nil
}
