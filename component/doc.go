// Package component defines the lifecycle interface shared by blobkit's
// long-lived pieces (the storage facade, the HTTP server) and a registry
// that starts them in order and stops them in reverse.
package component
