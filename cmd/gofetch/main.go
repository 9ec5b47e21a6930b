// Command gofetch downloads objects from S3-compatible object storage.
package main

import (
	"os"

	"github.com/3leaps/gofetch/internal/cmd"
)

// version, commit, and date are set via -ldflags at build time, e.g.:
//
//	go build -ldflags "-X main.version=v0.1.0 -X main.commit=$(git rev-parse --short HEAD) -X main.date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cmd.SetVersionInfo(version, commit, date)
	os.Exit(cmd.Execute())
}
