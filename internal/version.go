package internal

// Version is the application version, overridden at release time via
// -ldflags "-X github.com/gkplab/audiotag/internal.Version=...".
var Version = "0.3.0"
