package shell

import "strings"

// Operators recognized when they appear as standalone tokens.
const (
	OpInput      = "<"
	OpOutput     = ">"
	OpPipe       = "|"
	OpBackground = "&"
)

// IsOperator reports whether the token has structural meaning.
func IsOperator(tok string) bool {
	switch tok {
	case OpInput, OpOutput, OpPipe, OpBackground:
		return true
	}
	return false
}

// Stage is a single program invocation within a pipeline.
type Stage struct {
	// Argv holds the program name followed by its arguments, it's never empty.
	Argv []string `json:"argv"`
	// Input replaces the stage's standard input with the named file.
	Input string `json:"input,omitempty"`
	// Output appends the stage's standard output to the named file.
	Output string `json:"output,omitempty"`
}

// Name is the program the stage runs.
func (s *Stage) Name() string {
	return s.Argv[0]
}

func (s *Stage) String() string {
	var sb strings.Builder
	sb.WriteString(strings.Join(s.Argv, " "))
	if s.Input != "" {
		sb.WriteString(" < ")
		sb.WriteString(s.Input)
	}
	if s.Output != "" {
		sb.WriteString(" > ")
		sb.WriteString(s.Output)
	}
	return sb.String()
}

// Pipeline is an ordered, non-empty chain of stages. Each stage's output
// feeds the next stage's input unless a redirection says otherwise.
type Pipeline struct {
	Stages     []Stage `json:"stages"`
	Background bool    `json:"background,omitempty"`
}

// Names returns the program name of every stage.
func (p *Pipeline) Names() []string {
	var out []string
	for i := range p.Stages {
		out = append(out, p.Stages[i].Name())
	}
	return out
}

// String renders the pipeline in the same syntax it was parsed from.
func (p *Pipeline) String() string {
	var parts []string
	for i := range p.Stages {
		parts = append(parts, p.Stages[i].String())
	}
	out := strings.Join(parts, " | ")
	if p.Background {
		out += " &"
	}
	return out
}
