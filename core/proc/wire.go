package proc

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

const (
	stdinFd  = 0
	stdoutFd = 1

	// OutputFileMode is rw-r--r--, applied when an output redirect creates
	// its file.
	OutputFileMode = 0644
)

// replaceFd opens path and moves it onto target.
func replaceFd(path string, flags int, mode uint32, target int) error {
	fd, err := unix.Open(path, flags|unix.O_CLOEXEC, mode)
	if err != nil {
		return &os.PathError{Op: "open", Path: path, Err: err}
	}
	return moveFd(fd, target)
}

// moveFd duplicates fd onto target and closes the original. The duplicate
// doesn't inherit close-on-exec.
func moveFd(fd, target int) error {
	if fd == target {
		// Already in place, but still marked close-on-exec.
		if _, err := unix.FcntlInt(uintptr(fd), unix.F_SETFD, 0); err != nil {
			return fmt.Errorf("fcntl %d: %w", fd, err)
		}
		return nil
	}
	if err := unix.Dup3(fd, target, 0); err != nil {
		unix.Close(fd)
		return fmt.Errorf("dup %d -> %d: %w", fd, target, err)
	}
	if err := unix.Close(fd); err != nil {
		return fmt.Errorf("close %d: %w", fd, err)
	}
	return nil
}

// RedirectInput makes the named file the process's standard input.
func RedirectInput(path string) error {
	return replaceFd(path, unix.O_RDONLY, 0, stdinFd)
}

// RedirectOutput makes the named file the process's standard output,
// creating it or appending to it.
func RedirectOutput(path string) error {
	return replaceFd(path, unix.O_WRONLY|unix.O_CREAT|unix.O_APPEND, OutputFileMode, stdoutFd)
}

// pipe owns both ends of a pipe until they are handed off or closed. A
// closed end is -1.
type pipe struct {
	r, w int
}

func newPipe() (*pipe, error) {
	// Not os.Pipe: the runtime would switch the descriptors to non-blocking
	// mode and the next program would inherit it.
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_CLOEXEC); err != nil {
		return nil, fmt.Errorf("pipe: %w", err)
	}
	return &pipe{r: fds[0], w: fds[1]}, nil
}

// reader hands over the read end as a file, the pipe no longer owns it.
func (p *pipe) reader() *os.File {
	f := os.NewFile(uintptr(p.r), "|0")
	p.r = -1
	return f
}

// moveWriter duplicates the write end onto standard output.
func (p *pipe) moveWriter() error {
	w := p.w
	p.w = -1
	return moveFd(w, stdoutFd)
}

// Close releases whichever ends are still owned.
func (p *pipe) Close() error {
	var lastErr error
	for _, fd := range []*int{&p.r, &p.w} {
		if *fd < 0 {
			continue
		}
		if err := unix.Close(*fd); err != nil {
			lastErr = err
		}
		*fd = -1
	}
	return lastErr
}
