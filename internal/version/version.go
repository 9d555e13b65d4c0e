// Package version holds build metadata set with
// -ldflags "-X github.com/kailas-cloud/lograg/internal/version.Version=...".
package version

import "fmt"

//nolint:revive // ldflags targets
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String formats the build metadata for banners and --version output.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, Date)
}
