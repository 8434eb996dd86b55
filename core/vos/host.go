package vos

import (
	"io/fs"
	"os"
)

// HostOS is the VOS of the running process.
type HostOS struct {
	VIO
}

var _ VOS = (*HostOS)(nil)

// NewHostOS returns the current process's OS using the standard streams.
func NewHostOS() *HostOS {
	return &HostOS{VIO: NewVIOAdapter(os.Stdin, os.Stdout, os.Stderr)}
}

func (*HostOS) LookupEnv(key string) (string, bool) {
	return os.LookupEnv(key)
}

func (*HostOS) Getenv(key string) string {
	return os.Getenv(key)
}

func (*HostOS) Environ() []string {
	return os.Environ()
}

func (*HostOS) Getwd() (string, error) {
	return os.Getwd()
}

func (*HostOS) Chdir(dir string) error {
	return os.Chdir(dir)
}

func (*HostOS) Stat(name string) (fs.FileInfo, error) {
	return os.Stat(name)
}
