package anonfile

import (
	"context"
	"os"
	"path/filepath"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/containerd/log"
	"github.com/google/uuid"
	"github.com/moby/memfd"
	"github.com/moby/sys/mountinfo"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// defaultDir is the conventional tmpfs mount for scratch files.
const defaultDir = "/dev/shm"

func create(name string, opts Options) (*File, error) {
	ctx := context.TODO()

	if opts.Backend != BackendAuto {
		return createBackend(ctx, opts.Backend, name, opts)
	}

	chain := []Backend{BackendMemfd, BackendTmpfile, BackendUnlink, BackendTempDir}
	if opts.Sealable {
		// Only memfd can seal; never degrade to a backend that cannot.
		chain = chain[:1]
	}

	var err error
	for i, b := range chain {
		var f *File
		f, err = createBackend(ctx, b, name, opts)
		if err == nil {
			return f, nil
		}
		if i < len(chain)-1 {
			log.G(ctx).WithError(err).WithField("backend", b.String()).Debug("anonymous file backend unavailable, trying the next one")
		}
	}
	return nil, err
}

func createBackend(ctx context.Context, b Backend, name string, opts Options) (*File, error) {
	switch b {
	case BackendMemfd:
		return createMemfd(name, opts.Sealable)
	case BackendTmpfile:
		return createTmpfile(ctx, opts.Dir, name)
	case BackendUnlink:
		return createUnlink(ctx, opts.Dir, name)
	case BackendTempDir:
		return createTempDir(name)
	}
	// Unreachable, Create validates the backend.
	return nil, errors.Wrapf(cerrdefs.ErrInvalidArgument, "unknown backend %d", int(b))
}

func createMemfd(name string, sealable bool) (*File, error) {
	flags := memfd.Cloexec
	if sealable {
		flags |= memfd.AllowSealing
	}
	f, err := memfd.Create(name, flags)
	if err != nil {
		return nil, err
	}
	return &File{File: f.File, backend: BackendMemfd}, nil
}

func createTmpfile(ctx context.Context, dir, name string) (*File, error) {
	dir, err := tmpfsPath(ctx, dir)
	if err != nil {
		return nil, err
	}
	// O_EXCL combined with O_TMPFILE keeps the inode from ever being
	// linked into the filesystem.
	fd, err := unix.Open(dir, unix.O_TMPFILE|unix.O_RDWR|unix.O_EXCL|unix.O_CLOEXEC, 0o600)
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: dir, Err: err}
	}
	return &File{File: os.NewFile(uintptr(fd), filepath.Join(dir, name)), backend: BackendTmpfile}, nil
}

func createUnlink(ctx context.Context, dir, name string) (*File, error) {
	dir, err := tmpfsPath(ctx, dir)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, name+"-"+uuid.Must(uuid.NewV7()).String())
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, err
	}
	if err := os.Remove(path); err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "unlinking %s", path)
	}
	return &File{File: f, backend: BackendUnlink}, nil
}

// tmpfsPath resolves the directory for tmpfs-backed scratch files: dir when
// set, /dev/shm when it is a tmpfs, otherwise the first conventional
// location the mount table lists as one.
func tmpfsPath(ctx context.Context, dir string) (string, error) {
	if dir != "" {
		ok, err := isTmpfs(dir)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", errors.Wrapf(cerrdefs.ErrInvalidArgument, "%s is not on a tmpfs", dir)
		}
		return dir, nil
	}

	if ok, err := isTmpfs(defaultDir); err == nil && ok {
		return defaultDir, nil
	}

	mounts, err := mountinfo.GetMounts(mountinfo.FSTypeFilter("tmpfs"))
	if err != nil {
		return "", errors.Wrap(err, "scanning the mount table for a tmpfs")
	}
	for _, candidate := range []string{"/run/shm", "/tmp", "/run"} {
		for _, m := range mounts {
			if m.Mountpoint == candidate {
				log.G(ctx).WithField("dir", candidate).Debug("using a fallback tmpfs mount")
				return candidate, nil
			}
		}
	}
	return "", errors.Wrap(cerrdefs.ErrNotFound, "no tmpfs mount available")
}

// isTmpfs reports whether path sits on a tmpfs, going by filesystem magic.
func isTmpfs(path string) (bool, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return false, &os.PathError{Op: "statfs", Path: path, Err: err}
	}
	return st.Type == unix.TMPFS_MAGIC, nil
}
