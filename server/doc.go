// Package server hosts the blob HTTP API on a Gin engine behind an h2c
// handler, so plain-text HTTP/2 clients and HTTP/1.1 clients share a port.
//
// # Middleware
//
// Applied at the handler level, outermost first (server/middleware):
//
//   - Recovery: panic recovery with structured logging
//   - RequestID: X-Request-Id generation and propagation into the context
//   - BodySizeLimit: upload size limit
//   - RequestLogger: request logging with duration
//
// # Endpoints
//
// Built-in endpoints (server/endpoint):
//
//   - /health: component health aggregation
//   - /version: build version information
package server
