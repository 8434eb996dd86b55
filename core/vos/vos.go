// Package vos abstracts the parts of the operating system the interpreter
// consults directly so they can be substituted in tests.
package vos

import (
	"io"
	"io/fs"
)

// VEnv represents a process environment.
type VEnv interface {
	// LookupEnv retrieves the value of the environment variable named by the key.
	// If the variable is present in the environment the value (which may be
	// empty) is returned and the boolean is true. Otherwise the returned value
	// will be empty and the boolean will be false.
	LookupEnv(key string) (string, bool)

	// Getenv retrieves the value of the environment variable named by the key.
	// It returns the value, which will be empty if the variable is not present.
	Getenv(key string) string

	// Environ returns a copy of strings representing the environment, in the
	// form "key=value".
	Environ() []string
}

// VIO holds the standard streams of a process.
type VIO interface {
	Stdin() io.ReadCloser
	Stdout() io.WriteCloser
	Stderr() io.WriteCloser
}

// VFS holds the filesystem state the interpreter reads or mutates.
type VFS interface {
	// Getwd returns the absolute working directory.
	Getwd() (string, error)
	// Chdir changes the working directory. The directory is left unchanged on
	// error.
	Chdir(dir string) error
	// Stat returns file info for the named file.
	Stat(name string) (fs.FileInfo, error)
}

// VOS provides a virtual OS interface.
type VOS interface {
	VEnv
	VIO
	VFS
}
