package memfd

import (
	"fmt"
	"strings"
)

// Seal is a bitmask of file seals. Seals restrict which operations remain
// allowed on a memfd object and, once applied, cannot be removed for the
// lifetime of the object. The values match the F_SEAL_* constants of
// fcntl(2).
type Seal int

const (
	// SealSeal prevents any further seals from being added.
	SealSeal Seal = 0x0001
	// SealShrink prevents the object from being shrunk.
	SealShrink Seal = 0x0002
	// SealGrow prevents the object from being grown, whether by write
	// past the end, truncate or fallocate.
	SealGrow Seal = 0x0004
	// SealWrite prevents writing to the object through write(2) and
	// through new shared writable mappings. Applying it fails with EBUSY
	// while a shared writable mapping exists.
	SealWrite Seal = 0x0008
	// SealFutureWrite prevents new writes while existing writable
	// mappings stay usable (Linux 5.1 and up).
	SealFutureWrite Seal = 0x0010
	// SealExec prevents changes to the executable bits of the object
	// (Linux 6.3 and up).
	SealExec Seal = 0x0020
)

var sealNames = map[Seal]string{
	SealSeal:        "F_SEAL_SEAL",
	SealShrink:      "F_SEAL_SHRINK",
	SealGrow:        "F_SEAL_GROW",
	SealWrite:       "F_SEAL_WRITE",
	SealFutureWrite: "F_SEAL_FUTURE_WRITE",
	SealExec:        "F_SEAL_EXEC",
}

// String renders the set bits by their kernel names.
func (s Seal) String() string {
	if s == 0 {
		return "0"
	}
	var names []string
	for bit := Seal(1); bit != 0 && bit <= s; bit <<= 1 {
		if s&bit == 0 {
			continue
		}
		if name, ok := sealNames[bit]; ok {
			names = append(names, name)
		} else {
			names = append(names, fmt.Sprintf("%#x", uint(bit)))
		}
	}
	return strings.Join(names, "|")
}

// AddSeals applies seals to the file referred to by fd, using
// fcntl(F_ADD_SEALS). Errors are returned verbatim from the kernel: EPERM
// when the object was created without [AllowSealing] or already carries
// [SealSeal], EBUSY when [SealWrite] is applied while a shared writable
// mapping of the object exists, EINVAL when fd is not a sealable object.
func AddSeals(fd int, seals Seal) error {
	return addSeals(fd, seals)
}

// GetSeals returns the seals applied to the file referred to by fd, using
// fcntl(F_GET_SEALS). Errors are returned verbatim from the kernel.
func GetSeals(fd int) (Seal, error) {
	return getSeals(fd)
}
