package shell

import (
	"errors"
	"fmt"
	"strings"
)

// Whitespace holds the characters that separate tokens.
const Whitespace = " \t\n\v\f\r"

var (
	// ErrLineTooLong is returned when a line, terminator included, exceeds
	// Limits.MaxLineLength.
	ErrLineTooLong = errors.New("the command is too long")
	// ErrTokenTooLong is returned when a single token exceeds
	// Limits.MaxTokenLength.
	ErrTokenTooLong = errors.New("the sub command is too long")
	// ErrTooManyTokens is returned when a line holds more than
	// Limits.MaxTokens tokens.
	ErrTooManyTokens = errors.New("there are too many sub commands")
)

// Limits bounds the size of a single command line.
type Limits struct {
	// MaxLineLength is the longest accepted line in bytes, including the
	// line terminator.
	MaxLineLength int `json:"max_line_length" validate:"gte=2"`
	// MaxTokenLength is the longest accepted token in bytes.
	MaxTokenLength int `json:"max_token_length" validate:"gte=1"`
	// MaxTokens is the largest number of tokens on one line.
	MaxTokens int `json:"max_tokens" validate:"gte=1"`
}

// DefaultLimits are the limits used when nothing else is configured.
var DefaultLimits = Limits{
	MaxLineLength:  256,
	MaxTokenLength: 128,
	MaxTokens:      32,
}

// Tokens is an ordered list of whitespace delimited words from one line.
type Tokens []string

// Empty is true if the line held nothing to run.
func (t Tokens) Empty() bool {
	return len(t) == 0
}

// String joins the tokens with single spaces.
func (t Tokens) String() string {
	return strings.Join(t, " ")
}

// CheckLineLength reports ErrLineTooLong if a line with the given content
// length wouldn't fit once its terminator is counted.
func (l Limits) CheckLineLength(contentLength int) error {
	if contentLength+1 > l.MaxLineLength {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrLineTooLong, contentLength+1, l.MaxLineLength)
	}
	return nil
}

// Tokenize splits a line into tokens.
//
// The line may carry its trailing newline. An empty or blank line yields no
// tokens and no error. Any limit violation discards the whole line.
func Tokenize(line string, limits Limits) (Tokens, error) {
	content := strings.TrimSuffix(line, "\n")
	if err := limits.CheckLineLength(len(content)); err != nil {
		return nil, err
	}

	var out Tokens
	for _, tok := range strings.FieldsFunc(content, isWhitespace) {
		if len(out) >= limits.MaxTokens {
			return nil, fmt.Errorf("%w: limit %d", ErrTooManyTokens, limits.MaxTokens)
		}
		if len(tok) > limits.MaxTokenLength {
			return nil, fmt.Errorf("%w: %q is %d bytes, limit %d", ErrTokenTooLong, truncate(tok, 16), len(tok), limits.MaxTokenLength)
		}
		out = append(out, tok)
	}

	return out, nil
}

func isWhitespace(r rune) bool {
	return strings.ContainsRune(Whitespace, r)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
