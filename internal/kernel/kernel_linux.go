package kernel

import (
	"golang.org/x/sys/unix"
)

// GetKernelVersion returns the version of the running kernel, parsed from
// the release field of uname(2).
func GetKernelVersion() (*VersionInfo, error) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return nil, err
	}
	return ParseRelease(unix.ByteSliceToString(uts.Release[:]))
}
