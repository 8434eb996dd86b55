package proc

import (
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/josephlewis42/pipesh/core/vos"
)

// ExecStage turns the current process into stage index of the plan.
//
// Standard input is taken from the stage's input redirect if it has one,
// otherwise it's whatever the process was started with (the previous stage's
// pipe, or the terminal for the first stage). A stage with an output redirect
// writes to that file and ends the chain. Otherwise, if another stage follows,
// its process is started here reading from a new pipe and standard output goes
// to the pipe's write end. Finally the process image is replaced by the
// stage's program.
//
// ExecStage only returns on failure. The caller must report the error and
// exit with a non-zero status rather than continue with half-wired
// descriptors.
func ExecStage(host vos.VOS, plan *Plan, index int) error {
	stage := plan.Stages[index]

	if stage.Input != "" {
		if err := RedirectInput(stage.Input); err != nil {
			return err
		}
	}

	if plan.Reap == ReapAuto {
		// The runtime installed its own handler at startup, the inherited
		// disposition has to be restored for this stage's children and for
		// the program it becomes.
		signal.Ignore(syscall.SIGCHLD)
	}

	if stage.Output != "" {
		// The chain ends here, later stages are never started.
		if err := RedirectOutput(stage.Output); err != nil {
			return err
		}
	} else if plan.HasNext(index) {
		next, err := newPipe()
		if err != nil {
			return err
		}
		defer next.Close()

		if err := startStage(host, plan, index+1, next.reader()); err != nil {
			return err
		}
		if err := next.moveWriter(); err != nil {
			return err
		}
		if err := next.Close(); err != nil {
			return fmt.Errorf("close pipe: %w", err)
		}
	}

	path, err := vos.LookPath(host, stage.Name())
	if err != nil {
		return fmt.Errorf("%s: %w", stage.Name(), err)
	}

	if err := syscall.Exec(path, stage.Argv, host.Environ()); err != nil {
		return fmt.Errorf("%s: %w", stage.Name(), err)
	}
	return nil
}

// startStage starts the process for the stage at index reading from stdin,
// it takes ownership of stdin. The new process isn't waited for, it outlives
// the caller's image.
func startStage(host vos.VOS, plan *Plan, index int, stdin *os.File) error {
	defer stdin.Close()

	argv, err := plan.Command(index)
	if err != nil {
		return err
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = stdin
	cmd.Stdout = host.Stdout()
	cmd.Stderr = host.Stderr()
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", plan.Stages[index].Name(), err)
	}

	return cmd.Process.Release()
}
