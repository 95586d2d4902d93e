// Package memexec loads a program image into sealed anonymous memory and
// runs it from there, without the image ever touching a filesystem.
//
// [Load] copies the image into a memfd object, optionally verifies it
// against an OCI digest, and seals it against any further modification.
// The result can either be run as a child process with
// [Executable.Command], or replace the current process with
// [Executable.Exec]. Both paths start the program through /proc/self/fd,
// so the image never needs a pathname on a filesystem.
package memexec

import (
	"context"
	"io"
	"os"
	"os/exec"

	"github.com/moby/memfd"
	"github.com/opencontainers/go-digest"
	"github.com/pkg/errors"
)

// Options controls [Load].
type Options struct {
	// Name is the debugging label of the in-memory image. It defaults to
	// "memexec" and doubles as the default argv[0] of [Executable.Command].
	Name string

	// Digest, when set, is verified against the loaded payload and Load
	// fails on a mismatch.
	Digest digest.Digest

	// MaxBytes caps the payload size when positive. Load fails as soon as
	// the cap is exceeded rather than buffering an unbounded stream.
	MaxBytes int64

	// NoSeal leaves the image unsealed. By default the payload is sealed
	// against writing, growing, shrinking and resealing before Load
	// returns.
	NoSeal bool
}

// Executable is a program image held in anonymous memory, ready to run.
type Executable struct {
	file *memfd.File
	size int64
}

// Load copies the contents of r into a new memfd object and prepares it
// for execution. The reader is consumed to EOF. Copying is aborted when
// ctx is canceled.
//
// On kernels without memfd_create (before Linux 3.17) and on non-Linux
// platforms, Load fails with [memfd.ErrNotSupported].
func Load(ctx context.Context, r io.Reader, opts Options) (*Executable, error) {
	if opts.Digest != "" {
		if err := opts.Digest.Validate(); err != nil {
			return nil, errors.Wrapf(err, "invalid digest %q", opts.Digest)
		}
	}
	if opts.Name == "" {
		opts.Name = "memexec"
	}
	return load(ctx, r, opts)
}

// Size returns the payload size in bytes.
func (e *Executable) Size() int64 {
	return e.size
}

// File exposes the underlying memory file, for example to send it to
// another process over a unix socket. The descriptor remains owned by the
// Executable.
func (e *Executable) File() *memfd.File {
	return e.file
}

// Close releases the in-memory image. Processes already started from it
// keep running unaffected.
func (e *Executable) Close() error {
	return e.file.Close()
}

// Command returns an [exec.Cmd] that runs the image as a child process.
// args is the complete argv of the child, argv[0] included; when empty,
// the image's label is used. The image descriptor is passed to the child
// as ExtraFiles[0], so callers appending their own ExtraFiles must keep it
// in first position.
func (e *Executable) Command(ctx context.Context, args ...string) *exec.Cmd {
	if len(args) == 0 {
		args = []string{e.file.Name()}
	}
	// ExtraFiles[0] becomes descriptor 3 in the child.
	cmd := exec.CommandContext(ctx, "/proc/self/fd/3")
	cmd.Args = args
	cmd.ExtraFiles = []*os.File{e.file.File}
	return cmd
}
