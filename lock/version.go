package lock

import (
	"strings"

	"golang.org/x/mod/semver"

	"github.com/kolkov/parksync/internal/parking"
)

// Version is the semantic version of the parksync primitives.
const Version = "v0.1.0"

// Info describes the library build.
type Info struct {
	// Version is the canonical semantic version.
	Version string

	// MajorMinor is the vX.Y prefix of Version.
	MajorMinor string

	// Prerelease is the pre-release suffix, if any, without the dash.
	Prerelease string

	// Buckets is the number of Parking Service buckets.
	Buckets int
}

// GetInfo returns information about the library.
//
// Example:
//
//	info := lock.GetInfo()
//	fmt.Printf("parksync %s (%d buckets)\n", info.Version, info.Buckets)
func GetInfo() Info {
	return Info{
		Version:    semver.Canonical(Version),
		MajorMinor: semver.MajorMinor(Version),
		Prerelease: strings.TrimPrefix(semver.Prerelease(Version), "-"),
		Buckets:    parking.NumBuckets,
	}
}

// Compatible reports whether code written against version v can use this
// build: v must be valid, share the major version and not be newer.
func Compatible(v string) bool {
	if !semver.IsValid(v) {
		return false
	}
	return semver.Major(v) == semver.Major(Version) && semver.Compare(v, Version) <= 0
}
