// soapd CLI - hosts SOAP services behind an extensible filter pipeline
package main

import (
	"os"

	"github.com/getmockd/soapd/pkg/cli"
)

// Build-time variables set via ldflags
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	cli.Version, cli.Commit, cli.BuildDate = Version, Commit, BuildDate
	os.Exit(cli.Main())
}
