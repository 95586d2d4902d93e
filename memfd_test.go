package memfd

import (
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

func TestFlagsString(t *testing.T) {
	tests := []struct {
		flags Flags
		want  string
	}{
		{0, "0"},
		{Cloexec, "MFD_CLOEXEC"},
		{Cloexec | AllowSealing, "MFD_CLOEXEC|MFD_ALLOW_SEALING"},
		{Cloexec | AllowSealing | Exec, "MFD_CLOEXEC|MFD_ALLOW_SEALING|MFD_EXEC"},
		{Hugetlb, "MFD_HUGETLB"},
		{Flags(0x4000), "0x4000"},
		{NoexecSeal | Flags(0x4000), "MFD_NOEXEC_SEAL|0x4000"},
	}
	for _, tc := range tests {
		assert.Check(t, is.Equal(tc.flags.String(), tc.want))
	}
}

func TestSealString(t *testing.T) {
	tests := []struct {
		seals Seal
		want  string
	}{
		{0, "0"},
		{SealSeal, "F_SEAL_SEAL"},
		{SealShrink | SealGrow | SealWrite, "F_SEAL_SHRINK|F_SEAL_GROW|F_SEAL_WRITE"},
		{SealFutureWrite, "F_SEAL_FUTURE_WRITE"},
		{SealExec | Seal(0x1000), "F_SEAL_EXEC|0x1000"},
	}
	for _, tc := range tests {
		assert.Check(t, is.Equal(tc.seals.String(), tc.want))
	}
}
