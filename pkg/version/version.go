package version

import "fmt"

// Version, Commit, and Date are set via ldflags at build time.
//
//	go build -ldflags "-X github.com/kubenetlabs/doubler/pkg/version.Version=v1.0.0
//	  -X github.com/kubenetlabs/doubler/pkg/version.Commit=abc1234
//	  -X github.com/kubenetlabs/doubler/pkg/version.Date=2025-01-01T00:00:00Z"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String renders the build info on one line.
func String() string {
	return fmt.Sprintf("doubler %s (commit: %s, built: %s)", Version, Commit, Date)
}
