package core

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/abiosoft/readline"
	"github.com/josephlewis42/pipesh/core/shell"
	"github.com/josephlewis42/pipesh/core/vos"
	"github.com/mattn/go-isatty"
)

// LineReader reads command lines one at a time.
type LineReader interface {
	// ReadLine shows the prompt and returns the next line without its
	// terminator. It returns io.EOF once the input is exhausted and
	// shell.ErrLineTooLong if the line doesn't fit the limits, in which case
	// the rest of the line has already been consumed.
	ReadLine(prompt string) (string, error)
	Close() error
}

// IsTerminal reports whether the stream is backed by a terminal.
func IsTerminal(stream interface{}) bool {
	f, ok := stream.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// NewLineReader picks an editing reader for terminals and a plain bounded
// reader for everything else.
func NewLineReader(vio vos.VIO, historyFile string, limits shell.Limits) (LineReader, error) {
	if IsTerminal(vio.Stdin()) {
		return NewReadlineReader(vio, historyFile, limits)
	}
	return NewBoundedReader(vio.Stdin(), vio.Stdout(), limits), nil
}

// BoundedReader reads lines from a stream. At most MaxLineLength bytes of a
// line are kept, the rest of an over-long line is read through a fixed size
// buffer and dropped.
type BoundedReader struct {
	r      *bufio.Reader
	out    io.Writer
	limits shell.Limits
}

var _ LineReader = (*BoundedReader)(nil)

// NewBoundedReader reads lines from r, writing prompts to out if it isn't
// nil.
func NewBoundedReader(r io.Reader, out io.Writer, limits shell.Limits) *BoundedReader {
	return &BoundedReader{
		r:      bufio.NewReader(r),
		out:    out,
		limits: limits,
	}
}

func (b *BoundedReader) ReadLine(prompt string) (string, error) {
	if b.out != nil && prompt != "" {
		fmt.Fprint(b.out, prompt)
	}

	var line []byte
	length := 0
	terminated := false

	for {
		chunk, err := b.r.ReadSlice('\n')
		length += len(chunk)
		line = appendBounded(line, chunk, b.limits.MaxLineLength)

		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if errors.Is(err, io.EOF) {
			if length == 0 {
				return "", io.EOF
			}
			break
		}
		if err != nil {
			return "", err
		}

		terminated = true
		break
	}

	if terminated {
		length--
	}
	if err := b.limits.CheckLineLength(length); err != nil {
		return "", err
	}

	return string(line[:length]), nil
}

func (b *BoundedReader) Close() error {
	return nil
}

// appendBounded appends as much of chunk to line as fits in limit bytes.
func appendBounded(line, chunk []byte, limit int) []byte {
	room := limit - len(line)
	if room <= 0 {
		return line
	}
	if len(chunk) > room {
		chunk = chunk[:room]
	}
	return append(line, chunk...)
}

// ReadlineReader reads lines from a terminal with line editing and history.
type ReadlineReader struct {
	rl     *readline.Instance
	limits shell.Limits
}

var _ LineReader = (*ReadlineReader)(nil)

// NewReadlineReader creates a reader on the streams of vio. History is kept
// in historyFile unless it's empty.
func NewReadlineReader(vio vos.VIO, historyFile string, limits shell.Limits) (*ReadlineReader, error) {
	cfg := &readline.Config{
		Stdin:       readline.NewCancelableStdin(vio.Stdin()),
		Stdout:      vio.Stdout(),
		Stderr:      vio.Stderr(),
		HistoryFile: historyFile,
	}

	if err := cfg.Init(); err != nil {
		return nil, err
	}

	rl, err := readline.NewEx(cfg)
	if err != nil {
		return nil, err
	}

	return &ReadlineReader{rl: rl, limits: limits}, nil
}

func (r *ReadlineReader) ReadLine(prompt string) (string, error) {
	r.rl.SetPrompt(prompt)
	line, err := r.rl.Readline()

	switch {
	case err == readline.ErrInterrupt:
		// Interrupt clears line.
		return "", nil
	case err != nil:
		return "", err
	}

	if err := r.limits.CheckLineLength(len(line)); err != nil {
		return "", err
	}
	return line, nil
}

func (r *ReadlineReader) Close() error {
	return r.rl.Close()
}
