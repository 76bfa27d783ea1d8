package provider

import "context"

// Provider is anything that can report a name and whether it is ready.
// Storage backends and the facade adapters both satisfy it.
type Provider interface {
	Name() string
	IsAvailable(ctx context.Context) bool
}

// RequestResponse executes one request and returns one response. Each
// storage operation (upload, download, delete, URL issuance) has an adapter
// of this shape.
type RequestResponse[I, O any] interface {
	Provider
	Execute(ctx context.Context, input I) (O, error)
}

// Middleware wraps a RequestResponse with extra behavior around Execute.
type Middleware[I, O any] func(RequestResponse[I, O]) RequestResponse[I, O]

// Chain composes middlewares so that the first one listed sees the call
// first: Chain(a, b)(p) == a(b(p)).
func Chain[I, O any](middlewares ...Middleware[I, O]) Middleware[I, O] {
	return func(p RequestResponse[I, O]) RequestResponse[I, O] {
		wrapped := p
		for i := range middlewares {
			wrapped = middlewares[len(middlewares)-1-i](wrapped)
		}
		return wrapped
	}
}
