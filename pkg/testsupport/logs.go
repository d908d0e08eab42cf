package testsupport

import (
	"context"
	"maps"
	"sync"

	"github.com/goliatone/go-cms-inline/pkg/interfaces"
)

// LogEntry is one captured log call.
type LogEntry struct {
	Logger  string
	Level   string
	Message string
	Fields  map[string]any
}

// LogRecorder captures entries from every logger it hands out. It satisfies
// both interfaces.LoggerProvider and interfaces.Logger.
type LogRecorder struct {
	mu      sync.Mutex
	entries []LogEntry
}

var _ interfaces.LoggerProvider = (*LogRecorder)(nil)

// NewLogRecorder returns an empty recorder.
func NewLogRecorder() *LogRecorder {
	return &LogRecorder{}
}

// GetLogger returns a logger tagged with the module name.
func (r *LogRecorder) GetLogger(name string) interfaces.Logger {
	return &recordedLogger{sink: r, name: name, fields: map[string]any{}}
}

// Logger returns an unnamed logger writing into the recorder.
func (r *LogRecorder) Logger() interfaces.Logger {
	return r.GetLogger("")
}

// Entries returns a snapshot of everything captured so far.
func (r *LogRecorder) Entries() []LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]LogEntry(nil), r.entries...)
}

// Find returns the first entry with the given message.
func (r *LogRecorder) Find(message string) (LogEntry, bool) {
	for _, entry := range r.Entries() {
		if entry.Message == message {
			return entry, true
		}
	}
	return LogEntry{}, false
}

func (r *LogRecorder) append(entry LogEntry) {
	r.mu.Lock()
	r.entries = append(r.entries, entry)
	r.mu.Unlock()
}

type recordedLogger struct {
	sink   *LogRecorder
	name   string
	fields map[string]any
}

func (l *recordedLogger) Trace(msg string, args ...any) { l.write("trace", msg, args) }
func (l *recordedLogger) Debug(msg string, args ...any) { l.write("debug", msg, args) }
func (l *recordedLogger) Info(msg string, args ...any)  { l.write("info", msg, args) }
func (l *recordedLogger) Warn(msg string, args ...any)  { l.write("warn", msg, args) }
func (l *recordedLogger) Error(msg string, args ...any) { l.write("error", msg, args) }
func (l *recordedLogger) Fatal(msg string, args ...any) { l.write("fatal", msg, args) }

func (l *recordedLogger) WithContext(context.Context) interfaces.Logger { return l }

func (l *recordedLogger) WithFields(fields map[string]any) interfaces.Logger {
	merged := maps.Clone(l.fields)
	maps.Copy(merged, fields)
	return &recordedLogger{sink: l.sink, name: l.name, fields: merged}
}

func (l *recordedLogger) write(level, msg string, args []any) {
	fields := maps.Clone(l.fields)
	for i := 0; i+1 < len(args); i += 2 {
		if key, ok := args[i].(string); ok && key != "" {
			fields[key] = args[i+1]
		}
	}
	l.sink.append(LogEntry{Logger: l.name, Level: level, Message: msg, Fields: fields})
}
