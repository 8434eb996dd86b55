package shell

// The grammar is a flat subset of
// https://pubs.opengroup.org/onlinepubs/9699919799/utilities/V3_chap02.html
//
//	pipeline := stage ( "|" stage )* [ "&" ]
//	stage    := ( WORD | "<" WORD | ">" WORD )+
//
// A redirection belongs to the stage it appears in, wherever in the stage it
// appears. Anything following "&" is ignored.

import (
	"errors"
	"fmt"
)

// ErrMalformedPipeline is returned for dangling operators and empty stages.
var ErrMalformedPipeline = errors.New("malformed pipeline")

// Build partitions tokens into a pipeline.
func Build(tokens Tokens) (*Pipeline, error) {
	out := &Pipeline{}
	var current Stage

	closeStage := func(at string) error {
		if len(current.Argv) == 0 {
			return fmt.Errorf("%w: empty command %s", ErrMalformedPipeline, at)
		}
		out.Stages = append(out.Stages, current)
		current = Stage{}
		return nil
	}

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		switch tok {
		case OpInput, OpOutput:
			if i+1 >= len(tokens) || IsOperator(tokens[i+1]) {
				return nil, fmt.Errorf("%w: %q needs a file name", ErrMalformedPipeline, tok)
			}
			i++
			if tok == OpInput {
				current.Input = tokens[i]
			} else {
				current.Output = tokens[i]
			}

		case OpPipe:
			if err := closeStage(fmt.Sprintf("before %q", tok)); err != nil {
				return nil, err
			}

		case OpBackground:
			out.Background = true
			if err := closeStage(fmt.Sprintf("before %q", tok)); err != nil {
				return nil, err
			}
			return out, nil

		default:
			current.Argv = append(current.Argv, tok)
		}
	}

	if err := closeStage("at end of line"); err != nil {
		return nil, err
	}
	return out, nil
}
