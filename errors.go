package memfd

import (
	"fmt"

	cerrdefs "github.com/containerd/errdefs"
)

// ErrNotSupported indicates that the running system has no memfd_create(2):
// the platform is not Linux, or the kernel predates 3.17. It unwraps to
// [cerrdefs.ErrNotImplemented].
var ErrNotSupported = fmt.Errorf("memfd is not supported on this system: %w", cerrdefs.ErrNotImplemented)
