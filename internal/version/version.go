// Package version holds the ghtraf version strings.
package version

import "strings"

// Version is the full build version. Release builds override it with
// -ldflags "-X github.com/ghtraf/ghtraf/internal/version.Version=...".
// Format: MAJOR.MINOR.PATCH[-PHASE][_BRANCH_BUILD-YYYYMMDD-COMMIT].
var Version = "0.2.0-alpha_main_3-20260226-b0c9d31"

// Base returns the semantic part of Version, without build metadata.
func Base() string {
	base, _, _ := strings.Cut(Version, "_")
	return base
}

// Full returns Version.
func Full() string {
	return Version
}

// String renders the line printed by --version.
func String() string {
	return "ghtraf " + Base() + " (" + Full() + ")"
}
