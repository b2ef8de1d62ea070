// Package meta holds the build information of ssdash.
package meta

import (
	"fmt"
)

// Version and Commit are injected at build time via ldflags.
var (
	Version = "HEAD"
	Commit  = "UNKNOWN"
)

// VersionString returns a line like "ssdash version 1.2.3 (abcdef)".
func VersionString() string {
	return fmt.Sprintf("ssdash version %s (%s)", Version, Commit)
}
