package spawntest

import (
	"strings"
	"sync"
)

// Record is one captured log call.
type Record struct {
	Level string
	Msg   string
	Args  []any
}

// RecordingLogger implements spawn.Logger and captures every call.
type RecordingLogger struct {
	mu      sync.Mutex
	records []Record
}

// NewRecordingLogger creates an empty recording logger.
func NewRecordingLogger() *RecordingLogger {
	return &RecordingLogger{}
}

func (l *RecordingLogger) Debug(msg string, args ...any) { l.log("debug", msg, args) }
func (l *RecordingLogger) Info(msg string, args ...any)  { l.log("info", msg, args) }
func (l *RecordingLogger) Warn(msg string, args ...any)  { l.log("warn", msg, args) }
func (l *RecordingLogger) Error(msg string, args ...any) { l.log("error", msg, args) }

// Records returns a copy of everything logged so far.
func (l *RecordingLogger) Records() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Record, len(l.records))
	copy(out, l.records)

	return out
}

// Contains reports whether a message at level contains substr.
func (l *RecordingLogger) Contains(level, substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, r := range l.records {
		if r.Level == level && strings.Contains(r.Msg, substr) {
			return true
		}
	}

	return false
}

func (l *RecordingLogger) log(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = append(l.records, Record{Level: level, Msg: msg, Args: args})
}
