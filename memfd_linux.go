package memfd

import (
	"context"
	"errors"
	"os"
	"sync"

	"github.com/containerd/log"
	"github.com/moby/memfd/internal/kernel"
	"golang.org/x/sys/unix"
)

func create(name string, flags Flags) (int, error) {
	return unix.MemfdCreate(name, int(flags))
}

// isNosysErrno picks out the errno of a kernel without the syscall, which
// the File layer reports as ErrNotSupported. The raw layer never calls
// this; it passes every errno through untouched.
func isNosysErrno(err error) bool {
	return errors.Is(err, unix.ENOSYS)
}

func addSeals(fd int, seals Seal) error {
	_, err := unix.FcntlInt(uintptr(fd), unix.F_ADD_SEALS, int(seals))
	return err
}

func getSeals(fd int) (Seal, error) {
	seals, err := unix.FcntlInt(uintptr(fd), unix.F_GET_SEALS, 0)
	if err != nil {
		return 0, err
	}
	return Seal(seals), nil
}

var supported = sync.OnceValue(func() bool {
	fd, err := create("memfd-probe", Cloexec)
	if err == nil {
		unix.Close(fd)
		return true
	}
	if errors.Is(err, unix.ENOSYS) {
		if v, kerr := kernel.GetKernelVersion(); kerr == nil && kernel.CompareKernelVersion(*v, kernel.VersionInfo{Kernel: 3, Major: 17}) < 0 {
			log.G(context.TODO()).WithField("kernel", v).Debug("running kernel predates memfd_create (Linux 3.17)")
		}
	}
	return false
})

func mapShared(f *File, write bool) ([]byte, error) {
	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	prot := unix.PROT_READ
	if write {
		prot |= unix.PROT_WRITE
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(fi.Size()), prot, unix.MAP_SHARED)
	if err != nil {
		return nil, os.NewSyscallError("mmap", err)
	}
	return data, nil
}

func unmap(data []byte) error {
	if err := unix.Munmap(data); err != nil {
		return os.NewSyscallError("munmap", err)
	}
	return nil
}
