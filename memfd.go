// Package memfd creates anonymous, memory-backed file objects using the
// Linux memfd_create(2) system call.
//
// A memfd lives entirely in memory and has no name on any filesystem. It is
// released automatically once the last descriptor referring to it is closed
// and the last mapping of it is unmapped. The descriptor behaves like a
// regular file: it can be truncated, written, read, memory-mapped, and
// passed to other processes, and it supports file sealing through
// fcntl(F_ADD_SEALS).
//
// The package exposes two layers with different error conventions. The
// low-level wrappers ([CreateFD], [AddSeals], [GetSeals]) forward arguments
// to the kernel untouched and return errors verbatim as
// [golang.org/x/sys/unix.Errno] values. The [File] layer returns errors in
// the conventions of the os package. On non-Linux platforms both layers
// report [ErrNotSupported]; on Linux kernels before 3.17 the low-level
// wrappers return the kernel's ENOSYS while the [File] layer translates it
// to [ErrNotSupported].
package memfd

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Flags selects the behavior of the object created by [Create] or
// [CreateFD]. The values match the MFD_* constants of memfd_create(2) and
// are the same on all architectures.
type Flags uint32

const (
	// Cloexec sets the close-on-exec flag on the new descriptor, like
	// O_CLOEXEC on open(2).
	Cloexec Flags = 0x0001
	// AllowSealing permits seals to be applied to the object. Without it
	// the seal set is fixed to [SealSeal] and [AddSeals] fails with EPERM.
	AllowSealing Flags = 0x0002
	// Hugetlb backs the object with huge pages (Linux 4.14 and up).
	Hugetlb Flags = 0x0004
	// NoexecSeal creates the object non-executable and seals it that way
	// (Linux 6.3 and up). It implies [AllowSealing].
	NoexecSeal Flags = 0x0008
	// Exec creates the object executable regardless of the
	// vm.memfd_noexec sysctl (Linux 6.3 and up).
	Exec Flags = 0x0010
)

var flagNames = map[Flags]string{
	Cloexec:      "MFD_CLOEXEC",
	AllowSealing: "MFD_ALLOW_SEALING",
	Hugetlb:      "MFD_HUGETLB",
	NoexecSeal:   "MFD_NOEXEC_SEAL",
	Exec:         "MFD_EXEC",
}

// String renders the set bits by their kernel names.
func (f Flags) String() string {
	if f == 0 {
		return "0"
	}
	var names []string
	for bit := Flags(1); bit != 0 && bit <= f; bit <<= 1 {
		if f&bit == 0 {
			continue
		}
		if name, ok := flagNames[bit]; ok {
			names = append(names, name)
		} else {
			names = append(names, fmt.Sprintf("%#x", uint32(bit)))
		}
	}
	return strings.Join(names, "|")
}

// CreateFD creates a new memfd object and returns the descriptor referring
// to it. The name is only a debugging label: the kernel prefixes it with
// "memfd:" and shows it in /proc/<pid>/fd, and it has no effect on the
// object itself. Names longer than 249 bytes are rejected by the kernel
// with EINVAL.
//
// The call is forwarded to the kernel as-is and the result is returned
// verbatim: a non-negative descriptor on success, or -1 and the raw errno
// on failure. CreateFD performs no validation, no retries, and no error
// translation. The one caveat inherited from the runtime is that a name
// containing a NUL byte fails with EINVAL before reaching the kernel.
//
// Most callers are better served by [Create].
func CreateFD(name string, flags Flags) (int, error) {
	return create(name, flags)
}

// Supported reports whether the running system has a usable memfd_create.
// The result is probed once by creating and closing a throwaway object,
// then cached for the lifetime of the process.
func Supported() bool {
	return supported()
}

// File is a memfd object wrapped in an *os.File. Unlike the raw [CreateFD]
// convention, errors returned by File methods follow the conventions of the
// os package and can be inspected with [errors.Is] and friends.
type File struct {
	*os.File
}

// Create creates a new memfd object with the given debugging label and
// flags. The returned File is empty; grow it with Truncate or Write.
func Create(name string, flags Flags) (*File, error) {
	fd, err := create(name, flags)
	if err != nil {
		if errors.Is(err, ErrNotSupported) || isNosysErrno(err) {
			return nil, ErrNotSupported
		}
		return nil, os.NewSyscallError("memfd_create", err)
	}
	return &File{os.NewFile(uintptr(fd), name)}, nil
}

// AddSeals applies seals to the object. Sealing requires the object to have
// been created with [AllowSealing].
func (f *File) AddSeals(seals Seal) error {
	if err := addSeals(int(f.Fd()), seals); err != nil {
		return os.NewSyscallError("fcntl", err)
	}
	return nil
}

// Seals returns the set of seals currently applied to the object.
func (f *File) Seals() (Seal, error) {
	seals, err := getSeals(int(f.Fd()))
	if err != nil {
		return 0, os.NewSyscallError("fcntl", err)
	}
	return seals, nil
}

// SealAll freezes the object: content and size become immutable and no
// further seals can be added. It is shorthand for adding [SealSeal],
// [SealShrink], [SealGrow] and [SealWrite] in one call.
func (f *File) SealAll() error {
	return f.AddSeals(SealSeal | SealShrink | SealGrow | SealWrite)
}

// Map maps the whole object into memory, shared and writable. The mapping
// stays valid after the File is closed and must be released with [Unmap].
// Mapping an empty object fails with EINVAL.
func (f *File) Map() ([]byte, error) {
	return mapShared(f, true)
}

// MapReadOnly maps the whole object into memory, shared and read-only.
// Writing to the returned slice faults.
func (f *File) MapReadOnly() ([]byte, error) {
	return mapShared(f, false)
}

// Unmap releases a mapping returned by [File.Map] or [File.MapReadOnly].
// The slice must not be used afterwards.
func Unmap(data []byte) error {
	return unmap(data)
}
