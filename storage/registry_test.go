package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/blobkit/logger"
)

func newTestRegistry(b Backend, defaultName string, access Access) *Registry {
	return NewRegistry(b, defaultName, access, logger.NewNop(), nil)
}

func TestResolve_CreatesOnceAndCaches(t *testing.T) {
	b := newFakeBackend()
	r := newTestRegistry(b, "", AccessPrivate)

	first, err := r.Resolve(context.Background(), "assets")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	second, err := r.Resolve(context.Background(), "assets")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if first != second {
		t.Error("expected the cached handle on the second call")
	}
	if got := b.creates.Load(); got != 1 {
		t.Errorf("creates = %d, want 1", got)
	}
	if got := b.accessCalls.Load(); got != 1 {
		t.Errorf("access fetches = %d, want 1", got)
	}
	if !first.Confirmed() || first.Name() != "assets" || first.Access() != AccessPrivate {
		t.Errorf("unexpected handle %+v", first)
	}
}

func TestResolve_ConcurrentFirstUse(t *testing.T) {
	b := newFakeBackend()
	b.gate = make(chan struct{})
	r := newTestRegistry(b, "", AccessPublicRead)

	const callers = 32
	var (
		wg      sync.WaitGroup
		handles = make([]*Container, callers)
		errs    = make([]error, callers)
		started sync.WaitGroup
	)
	started.Add(callers)
	for i := range callers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			started.Done()
			handles[i], errs[i] = r.Resolve(context.Background(), "shared")
		}(i)
	}
	started.Wait()
	// Let the callers pile up behind the in-flight creation.
	time.Sleep(20 * time.Millisecond)
	close(b.gate)
	wg.Wait()

	for i := range callers {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if handles[i] != handles[0] {
			t.Fatalf("caller %d got a different handle", i)
		}
	}
	if got := b.creates.Load(); got != 1 {
		t.Errorf("creates = %d, want 1", got)
	}
	if got := b.accessCalls.Load(); got != 1 {
		t.Errorf("access fetches = %d, want 1", got)
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}
}

func TestResolve_DefaultName(t *testing.T) {
	b := newFakeBackend()
	r := newTestRegistry(b, "assets", AccessPrivate)

	c, err := r.Resolve(context.Background(), "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if c.Name() != "assets" {
		t.Errorf("name = %q, want assets", c.Name())
	}
}

func TestResolve_MissingName(t *testing.T) {
	b := newFakeBackend()
	r := newTestRegistry(b, "", AccessPrivate)

	_, err := r.Resolve(context.Background(), "")
	if !IsInvalidArgument(err) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	if b.creates.Load() != 0 {
		t.Error("expected no remote call")
	}
}

func TestResolve_NamesAreCaseSensitive(t *testing.T) {
	b := newFakeBackend()
	r := newTestRegistry(b, "", AccessPrivate)

	lower, _ := r.Resolve(context.Background(), "assets")
	upper, _ := r.Resolve(context.Background(), "Assets")
	if lower == upper {
		t.Error("expected distinct handles")
	}
	if r.Len() != 2 {
		t.Errorf("Len = %d, want 2", r.Len())
	}
}

func TestResolve_FailureLeavesNoEntry(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*fakeBackend)
	}{
		{"create fails", func(b *fakeBackend) { b.createErr = errors.New("connection refused") }},
		{"access fetch fails", func(b *fakeBackend) { b.accessErr = errors.New("timeout") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newFakeBackend()
			tt.setup(b)
			r := newTestRegistry(b, "", AccessPrivate)

			_, err := r.Resolve(context.Background(), "assets")
			if !IsUnavailable(err) {
				t.Fatalf("expected unavailable, got %v", err)
			}
			if _, ok := r.Cached("assets"); ok {
				t.Fatal("failed resolution left a cache entry")
			}

			b.mu.Lock()
			b.createErr, b.accessErr = nil, nil
			b.mu.Unlock()

			c, err := r.Resolve(context.Background(), "assets")
			if err != nil {
				t.Fatalf("retry: %v", err)
			}
			if cached, ok := r.Cached("assets"); !ok || cached != c {
				t.Error("expected retry to populate the cache")
			}
			if got := b.creates.Load(); got != 2 {
				t.Errorf("creates = %d, want 2", got)
			}
		})
	}
}

func TestResolve_KeepsRemoteAccess(t *testing.T) {
	b := newFakeBackend()
	b.containers["public"] = AccessPublicRead
	r := newTestRegistry(b, "", AccessPrivate)

	c, err := r.Resolve(context.Background(), "public")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !c.IsPublic() {
		t.Error("expected the existing container's access mode, not the default")
	}
}

func TestResolve_CallerContextCancelled(t *testing.T) {
	b := newFakeBackend()
	b.gate = make(chan struct{})
	r := newTestRegistry(b, "", AccessPrivate)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := r.Resolve(ctx, "slow")
	if !IsUnavailable(err) {
		t.Fatalf("expected unavailable, got %v", err)
	}
	close(b.gate)
}

func TestResolve_LeaderCancelDoesNotFailWaiters(t *testing.T) {
	b := newFakeBackend()
	b.gate = make(chan struct{})
	r := newTestRegistry(b, "", AccessPrivate)

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := r.Resolve(leaderCtx, "shared")
		leaderErr <- err
	}()
	for b.creates.Load() == 0 {
		time.Sleep(time.Millisecond)
	}

	type result struct {
		c   *Container
		err error
	}
	waiter := make(chan result, 1)
	go func() {
		c, err := r.Resolve(context.Background(), "shared")
		waiter <- result{c, err}
	}()
	// Let the waiter join the in-flight creation.
	time.Sleep(20 * time.Millisecond)

	cancel()
	if err := <-leaderErr; !IsUnavailable(err) {
		t.Fatalf("leader: expected unavailable, got %v", err)
	}

	close(b.gate)
	res := <-waiter
	if res.err != nil {
		t.Fatalf("waiter: %v", res.err)
	}
	if res.c == nil || res.c.Name() != "shared" {
		t.Fatalf("waiter got %+v", res.c)
	}
	if got := b.creates.Load(); got != 1 {
		t.Errorf("creates = %d, want 1", got)
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}
}
