package memfd

import (
	"testing"

	"golang.org/x/sys/unix"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
	"gotest.tools/v3/skip"
)

func TestSealGrow(t *testing.T) {
	skip.If(t, !Supported(), "memfd_create is not supported on this kernel")

	f, err := Create("seal-grow", Cloexec|AllowSealing)
	assert.NilError(t, err)
	defer f.Close()

	const size = 1024
	assert.NilError(t, f.Truncate(size))
	assert.NilError(t, f.AddSeals(SealGrow))

	// Writes within the sealed size still work.
	_, err = f.WriteAt([]byte("x"), size-1)
	assert.NilError(t, err)

	// Writes past the end would grow the object and are refused.
	_, err = f.WriteAt([]byte("x"), size)
	assert.ErrorIs(t, err, unix.EPERM)

	// So is growing it by truncation.
	assert.ErrorIs(t, f.Truncate(size*2), unix.EPERM)

	seals, err := f.Seals()
	assert.NilError(t, err)
	assert.Check(t, is.Equal(seals, SealGrow))
}

func TestSealAll(t *testing.T) {
	skip.If(t, !Supported(), "memfd_create is not supported on this kernel")

	f, err := Create("seal-all", Cloexec|AllowSealing)
	assert.NilError(t, err)
	defer f.Close()

	_, err = f.Write([]byte("frozen"))
	assert.NilError(t, err)
	assert.NilError(t, f.SealAll())

	_, err = f.Write([]byte("more"))
	assert.ErrorIs(t, err, unix.EPERM)
	assert.ErrorIs(t, f.Truncate(0), unix.EPERM)

	// SealSeal is part of the set, so the seal set itself is frozen too.
	assert.ErrorIs(t, f.AddSeals(SealFutureWrite), unix.EPERM)

	seals, err := f.Seals()
	assert.NilError(t, err)
	assert.Check(t, is.Equal(seals, SealSeal|SealShrink|SealGrow|SealWrite))

	// Sealed content stays readable.
	buf := make([]byte, 6)
	_, err = f.ReadAt(buf, 0)
	assert.NilError(t, err)
	assert.Check(t, is.Equal(string(buf), "frozen"))
}

func TestSealWriteBusyWithMapping(t *testing.T) {
	skip.If(t, !Supported(), "memfd_create is not supported on this kernel")

	f, err := Create("seal-busy", Cloexec|AllowSealing)
	assert.NilError(t, err)
	defer f.Close()

	assert.NilError(t, f.Truncate(4096))

	data, err := f.Map()
	assert.NilError(t, err)

	// A shared writable mapping blocks SealWrite.
	assert.ErrorIs(t, f.AddSeals(SealWrite), unix.EBUSY)

	assert.NilError(t, Unmap(data))
	assert.NilError(t, f.AddSeals(SealWrite))
}

func TestAddSealsRequiresAllowSealing(t *testing.T) {
	skip.If(t, !Supported(), "memfd_create is not supported on this kernel")

	fd, err := CreateFD("sealing-off", Cloexec)
	assert.NilError(t, err)
	defer unix.Close(fd)

	assert.ErrorIs(t, AddSeals(fd, SealWrite), unix.EPERM)

	// Without AllowSealing the kernel fixes the seal set to SealSeal.
	seals, err := GetSeals(fd)
	assert.NilError(t, err)
	assert.Check(t, is.Equal(seals, SealSeal))
}

func TestGetSealsRaw(t *testing.T) {
	skip.If(t, !Supported(), "memfd_create is not supported on this kernel")

	fd, err := CreateFD("raw-seals", Cloexec|AllowSealing)
	assert.NilError(t, err)
	defer unix.Close(fd)

	seals, err := GetSeals(fd)
	assert.NilError(t, err)
	assert.Check(t, is.Equal(seals, Seal(0)))

	assert.NilError(t, AddSeals(fd, SealShrink|SealGrow))

	seals, err = GetSeals(fd)
	assert.NilError(t, err)
	assert.Check(t, is.Equal(seals, SealShrink|SealGrow))
}
