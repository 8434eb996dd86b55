package logger

import (
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// EventType names a kind of interpreter event.
type EventType string

const (
	// EventRunPipeline is recorded when a pipeline is dispatched.
	EventRunPipeline EventType = "run_pipeline"
	// EventBuiltin is recorded when a builtin runs.
	EventBuiltin EventType = "builtin"
	// EventRejectedLine is recorded when a line can't be tokenized or built.
	EventRejectedLine EventType = "rejected_line"
	// EventCommandFailed is recorded when a dispatched pipeline reports a
	// failure.
	EventCommandFailed EventType = "command_failed"
)

// Event is a single thing that happened in a session.
type Event struct {
	Type EventType
	// Command holds the builtin argv, or the program of each pipeline stage.
	Command []string
	// Background is set for pipelines that didn't block the interpreter.
	Background bool
	// Error describes why the event failed, if it did.
	Error string
}

// LogEntry is an event stamped with its time and session.
type LogEntry struct {
	TimestampMicros int64
	SessionID       string
	Event
}

// MarshalJSON implements json.Marshaler using the protobuf JSON mapping of a
// Struct.
func (le *LogEntry) MarshalJSON() ([]byte, error) {
	command := make([]interface{}, 0, len(le.Command))
	for _, c := range le.Command {
		command = append(command, c)
	}

	st, err := structpb.NewStruct(map[string]interface{}{
		"timestamp_micros": le.TimestampMicros,
		"session_id":       le.SessionID,
		"type":             string(le.Type),
		"command":          command,
		"background":       le.Background,
		"error":            le.Error,
	})
	if err != nil {
		return nil, err
	}

	return protojson.Marshal(st)
}

// UnmarshalJSON implements json.Unmarshaler.
func (le *LogEntry) UnmarshalJSON(data []byte) error {
	var st structpb.Struct
	if err := protojson.Unmarshal(data, &st); err != nil {
		return err
	}

	fields := st.GetFields()
	le.TimestampMicros = int64(fields["timestamp_micros"].GetNumberValue())
	le.SessionID = fields["session_id"].GetStringValue()
	le.Type = EventType(fields["type"].GetStringValue())
	le.Background = fields["background"].GetBoolValue()
	le.Error = fields["error"].GetStringValue()
	le.Command = nil
	for _, v := range fields["command"].GetListValue().GetValues() {
		le.Command = append(le.Command, v.GetStringValue())
	}
	return nil
}

// LogRecorder is a callback that stores events in an external datastore.
type LogRecorder func(le *LogEntry) error

// Logger captures interpreter events.
type Logger struct {
	Record LogRecorder
	// Now is the time source, time.Now if unset.
	Now func() time.Time
}

// NewJsonLinesLogRecorder creates a Logger that exports logs in newline
// delimited JSON object format.
func NewJsonLinesLogRecorder(w io.Writer) *Logger {
	var mu sync.Mutex

	return &Logger{
		Record: func(le *LogEntry) error {
			entry, err := le.MarshalJSON()
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			_, err = fmt.Fprintln(w, string(entry))
			return err
		},
	}
}

func (l *Logger) now() time.Time {
	if l.Now == nil {
		return time.Now()
	}
	return l.Now()
}

func (l *Logger) record(sessionID string, event Event) error {
	return l.Record(&LogEntry{
		TimestampMicros: l.now().UnixMicro(),
		SessionID:       sessionID,
		Event:           event,
	})
}

// NewSession creates a logger with attached session ID.
func (l *Logger) NewSession() *SessionLogger {
	return &SessionLogger{Logger: l, sessionID: fmt.Sprintf("%d", rand.Uint64())}
}

// EventRecorder stores events.
type EventRecorder interface {
	Record(event Event) error
}

// SessionLogger logs messages with a shared session ID.
type SessionLogger struct {
	*Logger
	sessionID string
}

var _ EventRecorder = (*SessionLogger)(nil)

// SessionID returns the ID attached to every entry.
func (l *SessionLogger) SessionID() string {
	return l.sessionID
}

func (l *SessionLogger) Record(event Event) error {
	return l.record(l.sessionID, event)
}

// NopEventRecorder discards events.
type NopEventRecorder struct{}

func (NopEventRecorder) Record(Event) error {
	return nil
}
