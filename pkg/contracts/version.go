// Package contracts holds the build identity shared by every binary.
package contracts

import (
	"fmt"
	"runtime"
)

// Version is the current version of the toolchain.
const Version = "1.2.0"

var (
	// BuildTime is set during build using ldflags
	BuildTime = "unknown"

	// GitCommit is set during build using ldflags
	GitCommit = "unknown"
)

// GetVersionString returns the short version banner the binaries print.
func GetVersionString() string {
	return fmt.Sprintf("ftdcli v%s", Version)
}

// GetFullVersionString returns the detailed version line for -version output.
func GetFullVersionString() string {
	return fmt.Sprintf("%s (built: %s, commit: %s, go: %s, os: %s/%s)",
		GetVersionString(),
		BuildTime,
		GitCommit,
		runtime.Version(),
		runtime.GOOS,
		runtime.GOARCH,
	)
}
