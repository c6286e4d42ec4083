// Package version holds build metadata, set through -ldflags at build time.
package version

var (
	AppName        = "Sweeper"
	AppDescription = "Deletes channel history in bulk without tripping Discord's rate limits."
	Version        = "dev"
	Commit         = "none"
	BuildDate      = "unknown"
)

// String returns the version line printed by the CLI and the about command.
func String() string {
	return AppName + " " + Version + " (" + Commit + ", " + BuildDate + ")"
}
