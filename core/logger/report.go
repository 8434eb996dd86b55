package logger

import (
	"encoding/json"
	"io"
	"sort"
	"strconv"
	"strings"
)

// ReadJSONLinesLog parses a newline delimited JSON log.
func ReadJSONLinesLog(r io.Reader, handler func(le *LogEntry)) error {
	decoder := json.NewDecoder(r)
	for decoder.More() {
		var rawEntry json.RawMessage
		if err := decoder.Decode(&rawEntry); err != nil {
			return err
		}

		var logEntry LogEntry
		if err := logEntry.UnmarshalJSON(rawEntry); err != nil {
			return err
		}

		handler(&logEntry)
	}
	return nil
}

// NewReport creates an empty report.
func NewReport() *Report {
	return &Report{
		Rejections: NewPathCounter("error"),
		Failures:   NewPathCounter("command", "error"),
		sessions:   make(map[string]bool),
	}
}

// Report holds statistics about the logged events.
type Report struct {
	LogEntries     int        `json:"log_entries"`
	Sessions       int        `json:"sessions"`
	InvalidEntries StrCounter `json:"unknown_log_entries,omitempty"`

	EventTypes StrCounter     `json:"event_types"`
	Pipelines  PipelineReport `json:"pipeline_report"`
	Builtins   StrCounter     `json:"builtins"`

	Rejections *PathCounter `json:"rejections"`
	Failures   *PathCounter `json:"failures"`

	sessions map[string]bool
}

func (r *Report) Update(le *LogEntry) {
	r.LogEntries++

	if !r.sessions[le.SessionID] {
		r.sessions[le.SessionID] = true
		r.Sessions++
	}

	r.EventTypes.Increment(string(le.Type))

	switch le.Type {
	case EventRunPipeline:
		r.Pipelines.update(&le.Event)
	case EventBuiltin:
		if len(le.Command) > 0 {
			r.Builtins.Increment(le.Command[0])
		}
	case EventRejectedLine:
		r.Rejections.Increment(le.Error)
	case EventCommandFailed:
		r.Failures.Increment(strings.Join(le.Command, " | "), le.Error)
	default:
		r.InvalidEntries.Increment(string(le.Type))
	}
}

type PipelineReport struct {
	Count      int `json:"count"`
	Background int `json:"background"`
	// Number of stages in each pipeline.
	Lengths StrCounter `json:"lengths"`
	// Programs run in any stage.
	Programs StrCounter `json:"programs"`
}

func (r *PipelineReport) update(e *Event) {
	r.Count++
	if e.Background {
		r.Background++
	}

	r.Lengths.Increment(strconv.Itoa(len(e.Command)))
	for _, program := range e.Command {
		r.Programs.Increment(program)
	}
}

// StrCounter counts the number of strings seen.
type StrCounter struct {
	internal map[string]int
}

// Increment adds one to the given key.
func (s *StrCounter) Increment(toAdd string) {
	if s.internal == nil {
		s.internal = make(map[string]int)
	}

	s.internal[toAdd]++
}

// Get returns the count of the given key.
func (s *StrCounter) Get(key string) int {
	return s.internal[key]
}

// MarshalJSON implemnts custom JSON marshaler.
func (s StrCounter) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.internal)
}

func NewPathCounter(cols ...string) *PathCounter {
	return &PathCounter{
		cols:     cols,
		internal: make(map[string]int),
	}
}

// PathCounter counts the number of times each tuple of values is seen.
type PathCounter struct {
	cols     []string
	internal map[string]int
}

// Increment adds one to the given key.
func (ctr *PathCounter) Increment(toAdd ...string) {
	if len(toAdd) != len(ctr.cols) {
		panic("wrong number of columns to add")
	}

	ctr.internal[toKey(toAdd...)]++
}

// Get returns the count of the given key.
func (ctr *PathCounter) Get(key ...string) int {
	return ctr.internal[toKey(key...)]
}

// MarshalJSON implemnts custom JSON marshaler.
func (ctr *PathCounter) MarshalJSON() ([]byte, error) {
	type Count struct {
		Count  int               `json:"count"`
		Fields map[string]string `json:"event"`
		Path   string            `json:"-"`
	}

	out := []Count{}
	for k, v := range ctr.internal {
		count := Count{
			Count:  v,
			Path:   k,
			Fields: make(map[string]string),
		}

		splitPath := fromKey(k)
		for colNum, colVal := range ctr.cols {
			count.Fields[colVal] = splitPath[colNum]
		}

		out = append(out, count)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Path < out[j].Path
		}
		return out[i].Count > out[j].Count
	})

	return json.Marshal(out)
}

func toKey(vals ...string) string {
	key, _ := json.Marshal(vals)
	return string(key)
}

func fromKey(key string) (out []string) {
	json.Unmarshal([]byte(key), &out)
	return
}
