package storage

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/kbukum/blobkit/logger"
	"github.com/kbukum/blobkit/observability"
)

// Registry resolves container names to handles, creating each container on
// first use. Handles are cached for the lifetime of the Registry and at most
// one creation runs per name at a time.
type Registry struct {
	backend       Backend
	defaultName   string
	defaultAccess Access
	log           *logger.Logger
	metrics       *observability.Metrics

	mu     sync.RWMutex
	cache  map[string]*Container
	flight singleflight.Group
}

// NewRegistry creates a Registry. defaultName is used when Resolve gets an
// empty name; defaultAccess is applied to containers created by this Registry.
func NewRegistry(backend Backend, defaultName string, defaultAccess Access, log *logger.Logger, metrics *observability.Metrics) *Registry {
	if defaultAccess == "" {
		defaultAccess = AccessPrivate
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Registry{
		backend:       backend,
		defaultName:   defaultName,
		defaultAccess: defaultAccess,
		log:           log,
		metrics:       metrics,
		cache:         make(map[string]*Container),
	}
}

// Resolve returns the handle for name, creating the container if it has not
// been seen before. Concurrent callers for the same unseen name share a single
// creation and receive the same handle.
func (r *Registry) Resolve(ctx context.Context, name string) (*Container, error) {
	if name == "" {
		name = r.defaultName
	}
	if name == "" {
		return nil, invalidArgument("container", "missing container identifier")
	}

	if c := r.lookup(name); c != nil {
		r.metrics.RecordCacheLookup(ctx, name, true)
		observability.SetSpanAttribute(ctx, observability.AttrCacheHit, true)
		return c, nil
	}
	r.metrics.RecordCacheLookup(ctx, name, false)
	observability.SetSpanAttribute(ctx, observability.AttrCacheHit, false)

	ch := r.flight.DoChan(name, func() (any, error) {
		// A flight that finished between lookup and DoChan has already
		// populated the cache.
		if c := r.lookup(name); c != nil {
			return c, nil
		}
		// The flight is shared, so it must outlive the caller that started it.
		c, err := r.create(context.WithoutCancel(ctx), name)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.cache[name] = c
		r.mu.Unlock()
		return c, nil
	})

	select {
	case <-ctx.Done():
		return nil, unavailable("resolve", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Container), nil
	}
}

func (r *Registry) create(ctx context.Context, name string) (*Container, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanResolve)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrContainer, name)

	if err := r.backend.CreateContainerIfNotExists(ctx, name, r.defaultAccess); err != nil {
		observability.SetSpanError(ctx, err)
		r.log.Error("container creation failed", logger.MergeWithError(logger.Fields(logger.FieldContainer, name), err))
		return nil, unavailable("create container", err)
	}

	access, err := r.backend.ContainerAccess(ctx, name)
	if err != nil {
		observability.SetSpanError(ctx, err)
		r.log.Error("container access lookup failed", logger.MergeWithError(logger.Fields(logger.FieldContainer, name), err))
		return nil, unavailable("get container access", err)
	}
	observability.SetSpanAttribute(ctx, observability.AttrAccess, string(access))

	r.log.Info("container ready", logger.Fields(
		logger.FieldContainer, name,
		logger.FieldAccess, string(access),
	))
	return &Container{name: name, access: access, confirmed: true}, nil
}

func (r *Registry) lookup(name string) *Container {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cache[name]
}

// Cached returns the cached handle for name without contacting the backend.
func (r *Registry) Cached(name string) (*Container, bool) {
	c := r.lookup(name)
	return c, c != nil
}

// Len returns the number of cached containers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cache)
}

// DefaultName returns the container used when callers pass an empty name.
func (r *Registry) DefaultName() string { return r.defaultName }

// DefaultAccess returns the access mode applied to newly created containers.
func (r *Registry) DefaultAccess() Access { return r.defaultAccess }
