// Package vostest provides an in-memory VOS for tests.
package vostest

import (
	"bytes"
	"io"
	"io/fs"
	"path"
	"strings"
	"syscall"

	"github.com/josephlewis42/pipesh/core/vos"
	"github.com/spf13/afero"
)

// TestOS is a deterministic VOS backed by an in-memory filesystem.
type TestOS struct {
	*vos.VIOAdapter
	*vos.MapEnv

	// Fs is the filesystem Stat and Chdir consult.
	Fs afero.Fs
	// StdoutBuf and StderrBuf capture everything written to the streams.
	StdoutBuf *bytes.Buffer
	StderrBuf *bytes.Buffer

	// GetwdErr is returned from Getwd when set.
	GetwdErr error

	cwd string
}

var _ vos.VOS = (*TestOS)(nil)

// NewTestOS creates an OS rooted at "/" with an empty environment reading
// input from stdin.
func NewTestOS(stdin io.Reader) *TestOS {
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	return &TestOS{
		VIOAdapter: vos.NewVIOAdapter(stdin, stdout, stderr),
		MapEnv:     vos.NewMapEnv(),
		Fs:         afero.NewMemMapFs(),
		StdoutBuf:  stdout,
		StderrBuf:  stderr,
		cwd:        "/",
	}
}

func (t *TestOS) resolve(name string) string {
	if path.IsAbs(name) {
		return path.Clean(name)
	}
	return path.Join(t.cwd, name)
}

// Getwd implements vos.VFS.Getwd.
func (t *TestOS) Getwd() (string, error) {
	if t.GetwdErr != nil {
		return "", t.GetwdErr
	}
	return t.cwd, nil
}

// Chdir implements vos.VFS.Chdir.
func (t *TestOS) Chdir(dir string) error {
	target := t.resolve(dir)
	info, err := t.Fs.Stat(target)
	if err != nil {
		return &fs.PathError{Op: "chdir", Path: dir, Err: fs.ErrNotExist}
	}
	if !info.IsDir() {
		return &fs.PathError{Op: "chdir", Path: dir, Err: syscall.ENOTDIR}
	}
	t.cwd = target
	return nil
}

// Stat implements vos.VFS.Stat.
func (t *TestOS) Stat(name string) (fs.FileInfo, error) {
	return t.Fs.Stat(t.resolve(name))
}

// MustMkdirAll creates directories, panicking on failure.
func (t *TestOS) MustMkdirAll(dirs ...string) {
	for _, d := range dirs {
		if err := t.Fs.MkdirAll(t.resolve(d), 0755); err != nil {
			panic(err)
		}
	}
}

// MustWriteFile creates a file with the given mode, panicking on failure.
func (t *TestOS) MustWriteFile(name, contents string, mode fs.FileMode) {
	if err := afero.WriteFile(t.Fs, t.resolve(name), []byte(contents), mode); err != nil {
		panic(err)
	}
}

// Output returns the captured stdout.
func (t *TestOS) Output() string {
	return t.StdoutBuf.String()
}

// Errors returns the captured stderr lines.
func (t *TestOS) Errors() []string {
	trimmed := strings.TrimRight(t.StderrBuf.String(), "\n")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "\n")
}
