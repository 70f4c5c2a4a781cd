package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func withBuildInfo(t *testing.T, version, commit, buildTime string) {
	t.Helper()
	prevV, prevC, prevB := Version, GitCommit, BuildTime
	t.Cleanup(func() { Version, GitCommit, BuildTime = prevV, prevC, prevB })
	Version, GitCommit, BuildTime = version, commit, buildTime
}

func TestIsRelease(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"1.2.3", true},
		{"v1.2.3", true},
		{"0.1.0-dev", false},
		{"1.0.0-rc.1", false},
		{"banana", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRelease(tt.in))
		})
	}
}

func TestCompare(t *testing.T) {
	assert.Equal(t, -1, Compare("0.9.0", "0.10.0"))
	assert.Equal(t, 0, Compare("v1.0.0", "1.0.0"))
	assert.Equal(t, 1, Compare("1.0.0", "1.0.0-rc.1"))
	assert.Equal(t, -1, Compare("garbage", "0.0.1"))
}

func TestString(t *testing.T) {
	withBuildInfo(t, "1.4.0", "unknown", "unknown")
	assert.Equal(t, "1.4.0", String())

	withBuildInfo(t, "1.4.0", "0123456789abcdef", "unknown")
	assert.Equal(t, "1.4.0-01234567", String())
}

func TestStringFull(t *testing.T) {
	withBuildInfo(t, "1.4.0", "abc", "2026-01-02T03:04:05Z")
	assert.Equal(t, "Version=1.4.0 Commit=abc BuildTime=2026-01-02T03:04:05Z", StringFull())

	withBuildInfo(t, "1.5.0-dev", "unknown", "")
	assert.Equal(t, "Version=1.5.0-dev Prerelease=true", StringFull())
}
