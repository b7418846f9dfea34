package version

// Version is the current release, overridden at build time with
// -ldflags "-X wikiroam/pkg/version.Version=...".
var Version = "v0.3.1"
