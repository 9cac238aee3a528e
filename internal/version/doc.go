// Package version exposes build metadata for arduino-packager.
//
// Version, Commit and BuildTime are injected at build time via ldflags
// (-X github.com/oshokin/arduino-packager/internal/version.Version=...).
package version
