// Package kernel provides helpers to query and compare the version of the
// running kernel.
package kernel

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
)

// VersionInfo holds the decomposed version of a kernel release string.
type VersionInfo struct {
	Kernel int    // major version of the kernel
	Major  int    // major revision of the kernel
	Minor  int    // minor revision of the kernel
	Flavor string // everything after the version digits, e.g. "-91-generic"
}

func (k *VersionInfo) String() string {
	return fmt.Sprintf("%d.%d.%d%s", k.Kernel, k.Major, k.Minor, k.Flavor)
}

// CompareKernelVersion compares two kernel versions. It returns -1 when a is
// older than b, 1 when a is newer than b, and 0 when they are equal. The
// flavor does not take part in the comparison.
func CompareKernelVersion(a, b VersionInfo) int {
	if a.Kernel != b.Kernel {
		if a.Kernel > b.Kernel {
			return 1
		}
		return -1
	}
	if a.Major != b.Major {
		if a.Major > b.Major {
			return 1
		}
		return -1
	}
	if a.Minor != b.Minor {
		if a.Minor > b.Minor {
			return 1
		}
		return -1
	}
	return 0
}

// ParseRelease decomposes a kernel release string such as
// "5.15.0-91-generic", "6.1.12" or "3.12-1-amd64" into a VersionInfo. The
// minor revision may be absent, in which case it parses as zero. Whatever
// follows the version digits is kept verbatim as the flavor.
func ParseRelease(release string) (*VersionInfo, error) {
	kernel, rest, err := leadingInt(release)
	if err != nil || len(rest) == 0 || rest[0] != '.' {
		return nil, errors.Errorf("failed to parse kernel version %q", release)
	}
	major, rest, err := leadingInt(rest[1:])
	if err != nil {
		return nil, errors.Errorf("failed to parse kernel version %q", release)
	}

	var minor int
	flavor := rest
	if len(rest) > 0 && rest[0] == '.' {
		if m, r, err := leadingInt(rest[1:]); err == nil {
			minor, flavor = m, r
		}
	}

	return &VersionInfo{
		Kernel: kernel,
		Major:  major,
		Minor:  minor,
		Flavor: flavor,
	}, nil
}

// leadingInt consumes the leading decimal digits of s and returns their
// value along with the unconsumed remainder.
func leadingInt(s string) (int, string, error) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, s, errors.New("no leading digits")
	}
	n, err := strconv.Atoi(s[:i])
	if err != nil {
		return 0, s, err
	}
	return n, s[i:], nil
}
