package kernel

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

func TestParseRelease(t *testing.T) {
	tests := []struct {
		in   string
		want VersionInfo
	}{
		{in: "3.8", want: VersionInfo{Kernel: 3, Major: 8}},
		{in: "3.8.0", want: VersionInfo{Kernel: 3, Major: 8}},
		{in: "3.8.0-19-generic", want: VersionInfo{Kernel: 3, Major: 8, Flavor: "-19-generic"}},
		{in: "3.12-1-amd64", want: VersionInfo{Kernel: 3, Major: 12, Flavor: "-1-amd64"}},
		{in: "3.4.54.longterm-1", want: VersionInfo{Kernel: 3, Major: 4, Minor: 54, Flavor: ".longterm-1"}},
		{in: "4.19.0-rc8+", want: VersionInfo{Kernel: 4, Major: 19, Flavor: "-rc8+"}},
		{in: "5.15.0-91-generic", want: VersionInfo{Kernel: 5, Major: 15, Flavor: "-91-generic"}},
		{in: "6.1.82-99.168.amzn2023.x86_64", want: VersionInfo{Kernel: 6, Major: 1, Minor: 82, Flavor: "-99.168.amzn2023.x86_64"}},
		{in: "6.12.3", want: VersionInfo{Kernel: 6, Major: 12, Minor: 3}},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseRelease(tc.in)
			assert.NilError(t, err)
			if diff := cmp.Diff(tc.want, *got); diff != "" {
				t.Errorf("ParseRelease(%q) mismatch (-want +got):\n%s", tc.in, diff)
			}
		})
	}
}

func TestParseReleaseError(t *testing.T) {
	for _, release := range []string{"", "3", "3.", "a.b.c", "x.18.0", "3.x.1", "-3.8.0"} {
		t.Run(release, func(t *testing.T) {
			_, err := ParseRelease(release)
			assert.ErrorContains(t, err, "failed to parse kernel version")
		})
	}
}

func TestVersionInfoString(t *testing.T) {
	v := VersionInfo{Kernel: 5, Major: 15, Minor: 0, Flavor: "-91-generic"}
	assert.Check(t, is.Equal(v.String(), "5.15.0-91-generic"))
}

func TestCompareKernelVersion(t *testing.T) {
	tests := []struct {
		a, b VersionInfo
		want int
	}{
		{VersionInfo{Kernel: 3, Major: 8}, VersionInfo{Kernel: 3, Major: 8}, 0},
		{VersionInfo{Kernel: 3, Major: 8}, VersionInfo{Kernel: 2, Major: 6, Minor: 32}, 1},
		{VersionInfo{Kernel: 3, Major: 8}, VersionInfo{Kernel: 3, Major: 17}, -1},
		{VersionInfo{Kernel: 3, Major: 17}, VersionInfo{Kernel: 3, Major: 16, Minor: 99}, 1},
		{VersionInfo{Kernel: 4, Major: 14, Minor: 2}, VersionInfo{Kernel: 4, Major: 14, Minor: 10}, -1},
		{VersionInfo{Kernel: 6, Major: 3, Flavor: "-arch1"}, VersionInfo{Kernel: 6, Major: 3, Flavor: "-generic"}, 0},
	}
	for _, tc := range tests {
		assert.Check(t, is.Equal(CompareKernelVersion(tc.a, tc.b), tc.want),
			"comparing %s to %s", tc.a.String(), tc.b.String())
	}
}
