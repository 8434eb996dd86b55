package proc

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"sync"
	"syscall"

	"github.com/josephlewis42/pipesh/core/shell"
	"github.com/josephlewis42/pipesh/core/vos"
)

// ReapPolicy decides how terminated children are cleaned up.
type ReapPolicy string

const (
	// ReapAuto ignores SIGCHLD for the whole process so the kernel reaps
	// children as they exit. Exit statuses can't be observed. All descendants
	// inherit the disposition.
	ReapAuto ReapPolicy = "auto"
	// ReapWait keeps the default disposition and waits for every first-stage
	// process, making exit statuses visible.
	ReapWait ReapPolicy = "wait"
)

var (
	// ErrUnknownReapPolicy is returned by Init for an unsupported policy.
	ErrUnknownReapPolicy = errors.New("unknown reap policy")
	// ErrStageFailed wraps a non-zero exit of a foreground first stage, it's
	// only reported under ReapWait.
	ErrStageFailed = errors.New("command failed")
)

// Launcher starts pipelines on behalf of the interpreter.
type Launcher struct {
	// Helper is the command line that runs ExecStage in a new process.
	Helper []string
	// Policy is applied to the whole process by Init.
	Policy ReapPolicy
	// Env is appended to the environment of the first stage process.
	Env []string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	Log *slog.Logger

	initOnce sync.Once
	initErr  error
}

// NewLauncher creates a launcher that connects the first stage to the
// streams of vio.
func NewLauncher(helper []string, policy ReapPolicy, vio vos.VIO, log *slog.Logger) *Launcher {
	return &Launcher{
		Helper: helper,
		Policy: policy,
		Stdin:  vio.Stdin(),
		Stdout: vio.Stdout(),
		Stderr: vio.Stderr(),
		Log:    log,
	}
}

// Init applies the reap policy. The disposition is process-wide and never
// reset, so only the first call has an effect.
func (l *Launcher) Init() error {
	l.initOnce.Do(func() {
		switch l.Policy {
		case ReapAuto:
			signal.Ignore(syscall.SIGCHLD)
		case ReapWait:
			// Default disposition.
		default:
			l.initErr = fmt.Errorf("%w: %q", ErrUnknownReapPolicy, l.Policy)
		}
	})
	return l.initErr
}

func (l *Launcher) logger() *slog.Logger {
	if l.Log == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return l.Log
}

// Launch starts the process for the first stage of p; the rest of the chain
// is started by the stages themselves.
//
// A foreground pipeline blocks until the first stage process terminates,
// later stages may still be running when Launch returns. A background
// pipeline returns as soon as the process has started.
func (l *Launcher) Launch(p *shell.Pipeline) error {
	if err := l.Init(); err != nil {
		return err
	}

	plan := NewPlan(l.Helper, p)
	plan.Reap = l.Policy
	argv, err := plan.Command(0)
	if err != nil {
		return err
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = l.Stdin
	cmd.Stdout = l.Stdout
	cmd.Stderr = l.Stderr
	if len(l.Env) > 0 {
		cmd.Env = append(os.Environ(), l.Env...)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", p.Stages[0].Name(), err)
	}

	log := l.logger().With("pid", cmd.Process.Pid, "pipeline", p.String())
	if p.Background {
		log.Debug("started background pipeline")
		if l.Policy == ReapWait {
			go func() {
				if err := l.wait(cmd); err != nil {
					log.Info("background pipeline finished", "error", err)
				}
			}()
			return nil
		}
		return cmd.Process.Release()
	}

	log.Debug("waiting for first stage")
	return l.wait(cmd)
}

func (l *Launcher) wait(cmd *exec.Cmd) error {
	err := cmd.Wait()

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, syscall.ECHILD):
		// Reaped by the kernel, the status is gone.
		return nil
	case errors.As(err, &exitErr):
		return fmt.Errorf("%w: %v", ErrStageFailed, exitErr)
	default:
		return err
	}
}
