package version

// Version is the rulehub version, overridden at build time via
// -ldflags "-X github.com/odyssey/rulehub/internal/version.Version=...".
var Version = "0.3.0-dev"
