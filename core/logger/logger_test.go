package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJsonLinesLogRecorder(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJsonLinesLogRecorder(&buf)
	logger.Now = func() time.Time { return time.UnixMicro(1634000000000000) }
	session := logger.NewSession()

	events := []Event{
		{Type: EventRunPipeline, Command: []string{"ls", "wc"}, Background: true},
		{Type: EventBuiltin, Command: []string{"cd", "/tmp"}},
		{Type: EventRejectedLine, Error: "malformed pipeline"},
	}
	for _, e := range events {
		assert.Nil(t, session.Record(e))
	}

	var got []LogEntry
	err := ReadJSONLinesLog(&buf, func(le *LogEntry) {
		got = append(got, *le)
	})
	assert.Nil(t, err)

	assert.Len(t, got, len(events))
	for i, le := range got {
		assert.Equal(t, int64(1634000000000000), le.TimestampMicros)
		assert.Equal(t, session.SessionID(), le.SessionID)
		assert.Equal(t, events[i], le.Event)
	}
}

func TestReadJSONLinesLog_invalid(t *testing.T) {
	err := ReadJSONLinesLog(bytes.NewBufferString(`{"type": 3}{`), func(*LogEntry) {})
	assert.NotNil(t, err)
}

func TestReport(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJsonLinesLogRecorder(&buf)

	first := logger.NewSession()
	second := logger.NewSession()
	first.Record(Event{Type: EventRunPipeline, Command: []string{"ls", "wc"}})
	first.Record(Event{Type: EventRunPipeline, Command: []string{"sleep"}, Background: true})
	first.Record(Event{Type: EventCommandFailed, Command: []string{"nope"}, Error: "executable file not found"})
	second.Record(Event{Type: EventBuiltin, Command: []string{"cd"}})
	second.Record(Event{Type: EventRejectedLine, Error: "malformed pipeline"})
	second.Record(Event{Type: EventRejectedLine, Error: "malformed pipeline"})
	second.Record(Event{Type: "mystery"})

	report := NewReport()
	assert.Nil(t, ReadJSONLinesLog(&buf, report.Update))

	assert.Equal(t, 7, report.LogEntries)
	assert.Equal(t, 2, report.Sessions)
	assert.Equal(t, 2, report.EventTypes.Get(string(EventRunPipeline)))
	assert.Equal(t, 2, report.Pipelines.Count)
	assert.Equal(t, 1, report.Pipelines.Background)
	assert.Equal(t, 1, report.Pipelines.Lengths.Get("2"))
	assert.Equal(t, 1, report.Pipelines.Programs.Get("wc"))
	assert.Equal(t, 1, report.Builtins.Get("cd"))
	assert.Equal(t, 2, report.Rejections.Get("malformed pipeline"))
	assert.Equal(t, 1, report.Failures.Get("nope", "executable file not found"))
	assert.Equal(t, 1, report.InvalidEntries.Get("mystery"))

	_, err := json.Marshal(report)
	assert.Nil(t, err)
}

func TestPathCounter_MarshalJSON(t *testing.T) {
	ctr := NewPathCounter("command", "error")
	ctr.Increment("a", "x")
	ctr.Increment("b", "y")
	ctr.Increment("b", "y")

	out, err := json.Marshal(ctr)
	assert.Nil(t, err)
	assert.JSONEq(t, `[
		{"count": 2, "event": {"command": "b", "error": "y"}},
		{"count": 1, "event": {"command": "a", "error": "x"}}
	]`, string(out))

	assert.Panics(t, func() { ctr.Increment("too-few") })
}

func TestNewDiagnostics(t *testing.T) {
	var terminal, appLog bytes.Buffer
	log := NewDiagnostics(&terminal, &appLog, slog.LevelWarn)

	log.Info("spawned", "program", "ls")
	log.Warn("wait failed", "program", "wc")

	assert.NotContains(t, terminal.String(), "spawned")
	assert.Contains(t, terminal.String(), "wait failed")

	assert.Contains(t, appLog.String(), `"msg":"spawned"`)
	assert.Contains(t, appLog.String(), `"msg":"wait failed"`)
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("debug")
	assert.Nil(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	_, err = ParseLevel("loud")
	assert.NotNil(t, err)
}
