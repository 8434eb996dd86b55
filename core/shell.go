package core

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/fatih/color"
	"github.com/josephlewis42/pipesh/core/logger"
	"github.com/josephlewis42/pipesh/core/proc"
	"github.com/josephlewis42/pipesh/core/shell"
	"github.com/josephlewis42/pipesh/core/vos"
)

const (
	DefaultPrompt = `Shell: \w$ `
	Banner        = "~ pipesh ~"
)

var (
	// ErrInputClosed is returned by Run once the input has no more lines.
	ErrInputClosed = errors.New("STDIN reaches EOF")
	// ErrWorkingDirectory is returned when the working directory can't be
	// determined for the prompt.
	ErrWorkingDirectory = errors.New("couldn't get the working directory")
)

// State is where the interpreter is in handling a line.
type State int

const (
	// StateIdle is waiting for, or validating, the next line.
	StateIdle State = iota
	// StateDispatching is starting a pipeline.
	StateDispatching
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDispatching:
		return "dispatching"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Dispatcher starts pipelines.
type Dispatcher interface {
	// Init prepares the process to start pipelines, errors are fatal.
	Init() error
	// Launch starts the pipeline, blocking until its first stage ends unless
	// it runs in the background.
	Launch(p *shell.Pipeline) error
}

var _ Dispatcher = (*proc.Launcher)(nil)

// Shell reads lines, runs builtins and dispatches pipelines.
type Shell struct {
	VirtualOS  vos.VOS
	Input      LineReader
	Dispatcher Dispatcher
	Limits     shell.Limits

	// PromptTemplate is printed before each read with \w replaced by the
	// working directory.
	PromptTemplate string
	// Color enables colored prompts and diagnostics.
	Color bool

	Events logger.EventRecorder
	Log    *slog.Logger

	state State
}

// NewShell creates an interpreter with the default prompt and limits.
func NewShell(virtualOS vos.VOS, input LineReader, dispatcher Dispatcher) *Shell {
	return &Shell{
		VirtualOS:      virtualOS,
		Input:          input,
		Dispatcher:     dispatcher,
		Limits:         shell.DefaultLimits,
		PromptTemplate: DefaultPrompt,
		Events:         logger.NopEventRecorder{},
		Log:            logger.NewNopDiagnostics(),
	}
}

// State returns what the interpreter is doing.
func (s *Shell) State() State {
	return s.state
}

func (s *Shell) colorize(c *color.Color, str string) string {
	if s.Color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.Sprint(str)
}

// Prompt renders the prompt for the current working directory.
func (s *Shell) Prompt() (string, error) {
	wd, err := s.VirtualOS.Getwd()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrWorkingDirectory, err)
	}

	template := s.PromptTemplate
	if template == "" {
		template = DefaultPrompt
	}
	prompt := strings.ReplaceAll(template, `\w`, wd)
	return s.colorize(color.New(color.FgGreen, color.Bold), prompt), nil
}

// PrintBanner writes the startup banner.
func (s *Shell) PrintBanner() {
	fmt.Fprintln(s.VirtualOS.Stdout(), s.colorize(color.New(color.FgCyan), Banner))
}

// Errorf reports a diagnostic to the user.
func (s *Shell) Errorf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(s.VirtualOS.Stderr(), s.colorize(color.New(color.FgRed), "pipesh: "+msg))
}

func (s *Shell) record(event logger.Event) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Record(event); err != nil {
		s.Log.Warn("couldn't record event", "type", event.Type, "error", err)
	}
}

// Init prepares the dispatcher, it must succeed before lines are run.
func (s *Shell) Init() error {
	return s.Dispatcher.Init()
}

// Run reads and runs lines until a fatal error occurs. The returned error is
// never nil.
func (s *Shell) Run() error {
	if err := s.Init(); err != nil {
		return err
	}

	for {
		prompt, err := s.Prompt()
		if err != nil {
			return err
		}

		line, err := s.Input.ReadLine(prompt)
		switch {
		case errors.Is(err, io.EOF):
			return ErrInputClosed
		case errors.Is(err, shell.ErrLineTooLong):
			s.reject(err)
			continue
		case err != nil:
			return err
		}

		if err := s.RunLine(line); err != nil {
			return err
		}
	}
}

func (s *Shell) reject(err error) {
	s.Errorf("%v", err)
	s.record(logger.Event{Type: logger.EventRejectedLine, Error: reason(err)})
}

// reason strips the detail from a wrapped sentinel so similar rejections
// are grouped together.
func reason(err error) string {
	if inner := errors.Unwrap(err); inner != nil {
		return inner.Error()
	}
	return err.Error()
}

// RunLine runs a single line. Problems with the line or its commands are
// reported to the user, only fatal errors are returned.
func (s *Shell) RunLine(line string) error {
	tokens, err := shell.Tokenize(line, s.Limits)
	if err != nil {
		s.reject(err)
		return nil
	}
	if tokens.Empty() {
		return nil
	}

	if builtin, ok := AllBuiltins[tokens[0]]; ok {
		event := logger.Event{Type: logger.EventBuiltin, Command: tokens}
		if status := builtin.Main(s, tokens); status != 0 {
			event.Error = fmt.Sprintf("exit status %d", status)
		}
		s.record(event)
		return nil
	}

	pipeline, err := shell.Build(tokens)
	if err != nil {
		s.reject(err)
		return nil
	}

	return s.dispatch(pipeline)
}

func (s *Shell) dispatch(p *shell.Pipeline) error {
	s.state = StateDispatching
	defer func() { s.state = StateIdle }()

	s.Log.Debug("dispatching", "pipeline", p.String(), "background", p.Background)
	s.record(logger.Event{
		Type:       logger.EventRunPipeline,
		Command:    p.Names(),
		Background: p.Background,
	})

	err := s.Dispatcher.Launch(p)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, proc.ErrUnknownReapPolicy):
		return err
	}

	s.Errorf("%v", err)
	s.record(logger.Event{
		Type:       logger.EventCommandFailed,
		Command:    p.Names(),
		Background: p.Background,
		Error:      err.Error(),
	})
	return nil
}
