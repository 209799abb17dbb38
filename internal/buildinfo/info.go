// Package buildinfo carries the release stamp injected at link time.
package buildinfo

import "fmt"

// Set with -ldflags "-X github.com/cleared-dev/teller/internal/buildinfo.Version=...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String renders the stamp for --version.
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
}
