package version

import (
	"fmt"
	"runtime"
)

// Overridden at build time:
//
//	go build -ldflags "-X github.com/MrSnakeDoc/skylog/internal/version.Version=v0.2.0"
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
	GoVersion = runtime.Version()
)

// String is the one-line banner printed by `skylog version` and at startup.
func String() string {
	return fmt.Sprintf("skylog %s (commit=%s, built=%s, go=%s)", Version, Commit, BuildDate, GoVersion)
}
