package version

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// Version is the service release version, set at build time:
//
//	go build -ldflags "-X github.com/hrygo/ticketsense/internal/version.Version=0.3.1"
var Version = "0.1.0-dev"

// GitCommit is the git commit hash at build time.
var GitCommit = "unknown"

// BuildTime is the build timestamp in RFC3339 format.
var BuildTime = "unknown"

// canonical prefixes v for x/mod/semver.
func canonical(v string) string {
	if strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}

// IsRelease reports whether v is a valid semantic version without a prerelease suffix.
func IsRelease(v string) bool {
	c := canonical(v)
	return semver.IsValid(c) && semver.Prerelease(c) == ""
}

// Compare returns -1, 0 or 1 ordering a against b. Invalid versions sort lowest.
func Compare(a, b string) int {
	return semver.Compare(canonical(a), canonical(b))
}

func shortCommit() string {
	if GitCommit == "" || GitCommit == "unknown" {
		return ""
	}
	if len(GitCommit) > 8 {
		return GitCommit[:8]
	}
	return GitCommit
}

// String returns the version string with optional commit hash.
func String() string {
	if c := shortCommit(); c != "" {
		return fmt.Sprintf("%s-%s", Version, c)
	}
	return Version
}

// StringFull returns the complete version information including build metadata.
func StringFull() string {
	parts := []string{"Version=" + Version}
	if c := shortCommit(); c != "" {
		parts = append(parts, "Commit="+c)
	}
	if BuildTime != "" && BuildTime != "unknown" {
		parts = append(parts, "BuildTime="+BuildTime)
	}
	if !IsRelease(Version) {
		parts = append(parts, "Prerelease=true")
	}
	return strings.Join(parts, " ")
}
