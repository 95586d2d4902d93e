//go:build unix && !linux

package anonfile

import (
	"github.com/moby/memfd"
	"github.com/pkg/errors"
)

func create(name string, opts Options) (*File, error) {
	if opts.Sealable {
		return nil, errors.Wrap(memfd.ErrNotSupported, "sealable anonymous files")
	}
	switch opts.Backend {
	case BackendAuto, BackendTempDir:
		return createTempDir(name)
	default:
		return nil, errors.Wrapf(memfd.ErrNotSupported, "the %s backend", opts.Backend)
	}
}
