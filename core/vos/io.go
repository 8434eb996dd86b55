package vos

import (
	"io"
)

// VIOAdapter turns plain readers and writers into a VIO.
type VIOAdapter struct {
	IStdin  io.ReadCloser
	IStdout io.WriteCloser
	IStderr io.WriteCloser
}

// NewVIOAdapter wraps the streams, nil streams read as end of input and
// discard writes.
func NewVIOAdapter(stdin io.Reader, stdout, stderr io.Writer) *VIOAdapter {
	return &VIOAdapter{
		IStdin:  readCloserOrEmpty(stdin),
		IStdout: writeCloserOrDiscard(stdout),
		IStderr: writeCloserOrDiscard(stderr),
	}
}

var _ VIO = (*VIOAdapter)(nil)

func (pr *VIOAdapter) Stdin() io.ReadCloser {
	return pr.IStdin
}

func (pr *VIOAdapter) Stdout() io.WriteCloser {
	return pr.IStdout
}

func (pr *VIOAdapter) Stderr() io.WriteCloser {
	return pr.IStderr
}

func writeCloserOrDiscard(w io.Writer) io.WriteCloser {
	if w == nil {
		w = io.Discard
	}
	if wc, ok := w.(io.WriteCloser); ok {
		return wc
	}

	return nopWriteCloser{w}
}

func readCloserOrEmpty(r io.Reader) io.ReadCloser {
	if r == nil {
		return emptyReader{}
	}
	if rc, ok := r.(io.ReadCloser); ok {
		return rc
	}

	return io.NopCloser(r)
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// emptyReader is always at end of input.
type emptyReader struct{}

func (emptyReader) Read([]byte) (int, error) { return 0, io.EOF }

func (emptyReader) Close() error { return nil }
