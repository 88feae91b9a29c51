// Package version carries build metadata stamped in by the linker.
package version

import (
	"fmt"
	"runtime"
)

// Set via ldflags at build time:
//
//	go build -ldflags "-X github.com/soyeahso/standupbot/internal/version.Version=0.3.0
//	  -X github.com/soyeahso/standupbot/internal/version.Commit=abc123"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// UserAgent is sent on outbound HTTP requests and as the IRC version reply.
func UserAgent() string {
	return "standupbot/" + Version
}

// Info returns a formatted version string.
func Info() string {
	return fmt.Sprintf("standupbot %s (commit: %s, built: %s, %s/%s)",
		Version, short(Commit), Date, runtime.GOOS, runtime.GOARCH)
}

func short(s string) string {
	if len(s) > 7 {
		return s[:7]
	}
	return s
}
