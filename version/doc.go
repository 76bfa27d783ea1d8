// Package version reports the build version of blobkit binaries.
//
// Version, commit and build time are set at link time:
//
//	go build -ldflags "-X github.com/kbukum/blobkit/version.Version=1.0.0" ./cmd/blobctl
//
// Unset values fall back to the VCS stamp embedded by the Go toolchain.
package version
