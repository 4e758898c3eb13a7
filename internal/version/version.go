// Package version carries build metadata set through -ldflags.
package version

// Overridden at link time with -X.
var (
	Version   = "dev"
	Commit    = ""
	BuildDate = ""
)
