// Package version carries the build identity stamped into reports and
// the CLI banner.
package version

// Version is the release identifier. Overridable at build time via
// -ldflags "-X archlens/internal/shared/version.Version=...".
var Version = "0.4.0"

// AppName is the tool name used in SARIF driver metadata and the CLI.
const AppName = "archlens"
