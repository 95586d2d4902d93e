package memexec

import (
	"context"
	"fmt"
	"io"

	"github.com/containerd/log"
	"github.com/moby/memfd"
	"github.com/opencontainers/go-digest"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

func load(ctx context.Context, r io.Reader, opts Options) (*Executable, error) {
	f, err := createExecFD(opts.Name)
	if err != nil {
		return nil, errors.Wrap(err, "creating the in-memory file")
	}

	size, err := fill(ctx, f, r, opts)
	if err != nil {
		f.Close()
		return nil, err
	}

	if !opts.NoSeal {
		if err := f.SealAll(); err != nil {
			f.Close()
			return nil, errors.Wrap(err, "sealing the payload")
		}
	}

	log.G(ctx).WithFields(log.Fields{"name": opts.Name, "size": size, "sealed": !opts.NoSeal}).Debug("program image loaded into memory")
	return &Executable{file: f, size: size}, nil
}

// createExecFD creates the backing object. MFD_EXEC is requested first so
// the image stays executable under a restrictive vm.memfd_noexec sysctl;
// kernels before Linux 6.3 reject the flag with EINVAL, in which case
// executability is the default and the flag is simply dropped.
func createExecFD(name string) (*memfd.File, error) {
	f, err := memfd.Create(name, memfd.Cloexec|memfd.AllowSealing|memfd.Exec)
	if errors.Is(err, unix.EINVAL) {
		f, err = memfd.Create(name, memfd.Cloexec|memfd.AllowSealing)
	}
	return f, err
}

func fill(ctx context.Context, w io.Writer, r io.Reader, opts Options) (int64, error) {
	var verifier digest.Verifier
	if opts.Digest != "" {
		verifier = opts.Digest.Verifier()
		w = io.MultiWriter(w, verifier)
	}

	size, err := copyChunks(ctx, w, r, opts.MaxBytes)
	if err != nil {
		return 0, err
	}
	if verifier != nil && !verifier.Verified() {
		return 0, errors.Errorf("payload does not match digest %s", opts.Digest)
	}
	return size, nil
}

// copyChunks is io.Copy with a cancellation check and an optional size cap
// between chunks.
func copyChunks(ctx context.Context, dst io.Writer, src io.Reader, maxBytes int64) (int64, error) {
	var total int64
	buf := make([]byte, 128*1024)
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := src.Read(buf)
		if n > 0 {
			total += int64(n)
			if maxBytes > 0 && total > maxBytes {
				return total, errors.Wrapf(unix.EFBIG, "payload exceeds the %d byte limit", maxBytes)
			}
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return total, werr
			}
		}
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}

// Exec replaces the current process with the in-memory image, like
// execve(2). argv is the complete argument vector of the new program,
// argv[0] included. Exec only returns on failure, with the raw errno from
// the kernel.
func (e *Executable) Exec(argv []string, envv []string) error {
	return unix.Exec(fmt.Sprintf("/proc/self/fd/%d", int(e.file.Fd())), argv, envv)
}
