// Package version holds build version information.
package version

// Version is the application version, overridable at build time via
// -ldflags "-X github.com/actionforest/api/internal/version.Version=...".
var Version = "dev"
