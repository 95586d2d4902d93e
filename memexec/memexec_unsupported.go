//go:build !linux

package memexec

import (
	"context"
	"io"

	"github.com/moby/memfd"
)

func load(ctx context.Context, r io.Reader, opts Options) (*Executable, error) {
	return nil, memfd.ErrNotSupported
}

// Exec is not available on this platform.
func (e *Executable) Exec(argv []string, envv []string) error {
	return memfd.ErrNotSupported
}
