// Package version exposes build metadata for clitools.
//
// Version, Commit and BuildTime are injected at build time via Go ldflags.
// UserAgent derives the header sent to the release API from them.
package version
