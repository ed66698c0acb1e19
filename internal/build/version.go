package build

import (
	"fmt"
	"strings"
)

// These variables are populated at link time via -ldflags, e.g.
//
//	-X github.com/roasbeef/pushgate/internal/build.Commit=v0.1.0-3-gabcdef
var (
	// Commit is the output of `git describe` for the build.
	Commit string

	// CommitHash is the full commit hash the binary was built from.
	CommitHash string

	// GoVersion is the Go toolchain version used for the build.
	GoVersion string

	// RawTags is the comma separated list of build tags.
	RawTags string
)

const (
	// AppMajor is the major version component.
	AppMajor uint = 0

	// AppMinor is the minor version component.
	AppMinor uint = 1

	// AppPatch is the patch version component.
	AppPatch uint = 0

	// AppPreRelease is appended to the semantic version when non-empty.
	AppPreRelease = "beta"
)

// Version returns the semantic version of the binary.
func Version() string {
	version := fmt.Sprintf("%d.%d.%d", AppMajor, AppMinor, AppPatch)
	if AppPreRelease != "" {
		version = fmt.Sprintf("%s-%s", version, AppPreRelease)
	}

	return version
}

// Tags returns the build tags the binary was built with.
func Tags() []string {
	if RawTags == "" {
		return nil
	}

	return strings.Split(RawTags, ",")
}
