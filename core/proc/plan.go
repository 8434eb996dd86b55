// Package proc realizes pipelines as chains of operating system processes.
//
// The controller starts a single process for the first stage. Every stage
// process wires its own redirections, starts the process for the next stage
// itself (so each stage is the parent of the one after it) and then replaces
// its image with the stage's program. Because the Go runtime can't fork
// without exec, a stage process is a re-execution of a helper command that
// receives the encoded Plan and its stage index.
package proc

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/josephlewis42/pipesh/core/shell"
	"sigs.k8s.io/yaml"
)

// ErrInvalidPlan is returned when a stage process receives arguments it can't
// decode.
var ErrInvalidPlan = errors.New("invalid stage plan")

// Plan is everything a stage process needs to know to play its part.
type Plan struct {
	// Helper is the command line that starts a stage process, the encoded plan
	// and the stage index are appended to it.
	Helper []string `json:"helper"`
	// Stages of the pipeline, in order.
	Stages []shell.Stage `json:"stages"`
	// Reap is the controller's policy, stage processes apply it before
	// starting the next stage so the whole chain shares one disposition.
	Reap ReapPolicy `json:"reap,omitempty"`
}

// NewPlan creates a plan for the pipeline.
func NewPlan(helper []string, p *shell.Pipeline) *Plan {
	return &Plan{
		Helper: helper,
		Stages: p.Stages,
	}
}

// Encode serializes the plan for a command line argument.
func (p *Plan) Encode() (string, error) {
	out, err := yaml.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Command returns the argv that starts the process for the given stage.
func (p *Plan) Command(index int) ([]string, error) {
	encoded, err := p.Encode()
	if err != nil {
		return nil, err
	}

	argv := append([]string{}, p.Helper...)
	return append(argv, encoded, strconv.Itoa(index)), nil
}

// DecodePlan parses the two trailing arguments of a stage process.
func DecodePlan(encoded, index string) (*Plan, int, error) {
	var plan Plan
	if err := yaml.UnmarshalStrict([]byte(encoded), &plan); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidPlan, err)
	}

	i, err := strconv.Atoi(index)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: stage index: %v", ErrInvalidPlan, err)
	}

	switch {
	case len(plan.Helper) == 0:
		return nil, 0, fmt.Errorf("%w: no helper command", ErrInvalidPlan)
	case plan.Reap != "" && plan.Reap != ReapAuto && plan.Reap != ReapWait:
		return nil, 0, fmt.Errorf("%w: %w %q", ErrInvalidPlan, ErrUnknownReapPolicy, plan.Reap)
	case i < 0 || i >= len(plan.Stages):
		return nil, 0, fmt.Errorf("%w: stage %d of %d", ErrInvalidPlan, i, len(plan.Stages))
	case len(plan.Stages[i].Argv) == 0:
		return nil, 0, fmt.Errorf("%w: stage %d has no command", ErrInvalidPlan, i)
	}

	return &plan, i, nil
}

// HasNext reports whether a stage follows the one at index.
func (p *Plan) HasNext(index int) bool {
	return index+1 < len(p.Stages)
}
