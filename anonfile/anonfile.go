// Package anonfile creates anonymous scratch files: open descriptors that
// have no name on any filesystem and disappear when closed, backed by
// memory whenever the system allows it.
//
// On Linux the package prefers memfd_create(2) and degrades through
// O_TMPFILE on a tmpfs, then an immediately unlinked tmpfs file, down to an
// unlinked os.CreateTemp file. The last is the only backend available on
// other unix platforms. The backend that served a request is recorded on
// the returned [File], and fallbacks are logged at debug level.
package anonfile

import (
	"fmt"
	"os"
	"strings"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/pkg/errors"
)

// Backend identifies the mechanism that produced an anonymous file.
type Backend int

const (
	// BackendAuto lets Create pick the first backend that works, in the
	// order the constants below are declared.
	BackendAuto Backend = iota
	// BackendMemfd is memfd_create(2): anonymous memory, the only backend
	// that supports sealing.
	BackendMemfd
	// BackendTmpfile opens a tmpfs directory with O_TMPFILE, producing an
	// inode that never had a name.
	BackendTmpfile
	// BackendUnlink creates a named file on a tmpfs and unlinks it right
	// after opening.
	BackendUnlink
	// BackendTempDir is os.CreateTemp in the default temporary directory,
	// unlinked right after opening. Memory backing is not guaranteed.
	BackendTempDir
)

var backendNames = map[Backend]string{
	BackendAuto:    "auto",
	BackendMemfd:   "memfd",
	BackendTmpfile: "tmpfile",
	BackendUnlink:  "unlink",
	BackendTempDir: "tempdir",
}

func (b Backend) String() string {
	if name, ok := backendNames[b]; ok {
		return name
	}
	return fmt.Sprintf("backend(%d)", int(b))
}

// Options controls [Create]. The zero value picks the backend
// automatically and returns an empty, unsealable file.
type Options struct {
	// Size is the initial size of the file. When positive, the file is
	// grown to Size before it is returned.
	Size int64

	// Sealable requests an object that supports file sealing. Only the
	// memfd backend can seal, so Create fails instead of degrading when
	// the running system has no memfd_create.
	Sealable bool

	// Dir overrides the tmpfs directory used by the tmpfile and unlink
	// backends. When empty, /dev/shm is used if it is a mounted tmpfs,
	// with the mount table scanned for an alternative otherwise. Create
	// fails if Dir is set but is not on a tmpfs.
	Dir string

	// Backend forces a specific backend instead of automatic selection.
	Backend Backend
}

// File is an anonymous file together with the backend that produced it.
type File struct {
	*os.File
	backend Backend
}

// Backend reports which backend produced the file.
func (f *File) Backend() Backend {
	return f.backend
}

func (f *File) String() string {
	return fmt.Sprintf("%s (%s)", f.Name(), f.backend)
}

// Create returns a new anonymous file. The name is a debugging label: it
// shows up in /proc/<pid>/fd listings but never survives on a filesystem,
// and it must not contain path separators.
func Create(name string, opts Options) (*File, error) {
	if strings.ContainsRune(name, os.PathSeparator) {
		return nil, errors.Wrapf(cerrdefs.ErrInvalidArgument, "name %q contains a path separator", name)
	}
	if opts.Backend < BackendAuto || opts.Backend > BackendTempDir {
		return nil, errors.Wrapf(cerrdefs.ErrInvalidArgument, "unknown backend %d", int(opts.Backend))
	}
	if opts.Sealable && opts.Backend != BackendAuto && opts.Backend != BackendMemfd {
		return nil, errors.Wrapf(cerrdefs.ErrInvalidArgument, "the %s backend cannot seal", opts.Backend)
	}

	f, err := create(name, opts)
	if err != nil {
		return nil, err
	}
	if opts.Size > 0 {
		if err := f.Truncate(opts.Size); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

// createTempDir is the backend of last resort: a regular temporary file,
// unlinked as soon as it is open.
func createTempDir(name string) (*File, error) {
	f, err := os.CreateTemp("", name+"-")
	if err != nil {
		return nil, err
	}
	if err := os.Remove(f.Name()); err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "unlinking %s", f.Name())
	}
	return &File{File: f, backend: BackendTempDir}, nil
}
