//go:build !linux

package memfd

import (
	"testing"

	cerrdefs "github.com/containerd/errdefs"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

func TestNotSupported(t *testing.T) {
	assert.Check(t, !Supported())

	fd, err := CreateFD("test", 0)
	assert.Check(t, is.Equal(fd, -1))
	assert.ErrorIs(t, err, ErrNotSupported)
	assert.Check(t, cerrdefs.IsNotImplemented(err))

	_, err = Create("test", 0)
	assert.ErrorIs(t, err, ErrNotSupported)

	assert.ErrorIs(t, AddSeals(3, SealWrite), ErrNotSupported)

	_, err = GetSeals(3)
	assert.ErrorIs(t, err, ErrNotSupported)
}
