// Package provider defines the request/response provider shape used to
// expose storage operations, plus composable middleware around it.
//
// # Middleware
//
// Middleware[I, O] is a function that wraps a RequestResponse provider.
// Use Chain to compose multiple middlewares:
//
//	wrapped := provider.Chain(
//	    provider.WithLogging[In, Out](log),
//	    provider.WithMetrics[In, Out](metrics),
//	    provider.WithTracing[In, Out]("blobctl"),
//	)(storage.NewUploadProvider("upload", client))
package provider
