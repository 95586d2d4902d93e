//go:build !unix

package anonfile

import (
	cerrdefs "github.com/containerd/errdefs"
	"github.com/pkg/errors"
)

// Anonymous files need unlink-while-open semantics, which this platform
// does not have.
func create(name string, opts Options) (*File, error) {
	return nil, errors.Wrap(cerrdefs.ErrNotImplemented, "anonymous files are not supported on this platform")
}
