// Package version exposes the application version string.
package version

// Version is the application version. Overridden at build time with
// -ldflags "-X github.com/jblomberg5r/CryptoValhalla/internal/version.Version=v1.2.3".
var Version = "dev"
