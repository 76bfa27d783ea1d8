package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"
	"sync/atomic"
	"time"
)

// fakeBackend is an in-memory Backend that counts calls and can be made to
// fail or block.
type fakeBackend struct {
	mu         sync.Mutex
	containers map[string]Access
	objects    map[string][]byte
	props      map[string]Properties

	creates     atomic.Int32
	accessCalls atomic.Int32
	setProps    atomic.Int32

	createErr error
	accessErr error
	putErr    error
	// gate, when set, blocks CreateContainerIfNotExists until closed or
	// until its context is done.
	gate chan struct{}

	baseURL    string
	lastPolicy ReadPolicy
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		containers: make(map[string]Access),
		objects:    make(map[string][]byte),
		props:      make(map[string]Properties),
		baseURL:    "http://storage.test",
	}
}

func (f *fakeBackend) Name() string                       { return "fake" }
func (f *fakeBackend) IsAvailable(_ context.Context) bool { return true }

func (f *fakeBackend) CreateContainerIfNotExists(ctx context.Context, name string, access Access) error {
	f.creates.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.containers[name]; !ok {
		f.containers[name] = access
	}
	return nil
}

func (f *fakeBackend) ContainerAccess(_ context.Context, name string) (Access, error) {
	f.accessCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.accessErr != nil {
		return "", f.accessErr
	}
	access, ok := f.containers[name]
	if !ok {
		return "", fmt.Errorf("container %s does not exist", name)
	}
	return access, nil
}

func (f *fakeBackend) PutObject(_ context.Context, container, key string, r io.Reader) error {
	if f.putErr != nil {
		return f.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[container+"/"+key] = data
	delete(f.props, container+"/"+key)
	return nil
}

func (f *fakeBackend) SetProperties(_ context.Context, container, key string, props Properties) error {
	f.setProps.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.props[container+"/"+key] = props
	return nil
}

func (f *fakeBackend) GetObject(_ context.Context, container, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[container+"/"+key]
	if !ok {
		return nil, fmt.Errorf("get %s/%s: %w", container, key, ErrObjectNotFound)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeBackend) DeleteObject(_ context.Context, container, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, container+"/"+key)
	delete(f.props, container+"/"+key)
	return nil
}

func (f *fakeBackend) ObjectURL(container, key string) (string, error) {
	return f.baseURL + "/" + container + "/" + key, nil
}

func (f *fakeBackend) SignRead(_ context.Context, container, key string, policy ReadPolicy) (string, error) {
	f.mu.Lock()
	f.lastPolicy = policy
	f.mu.Unlock()
	return url.Values{
		"sp":  {string(policy.Permission)},
		"se":  {policy.Expiry.UTC().Format(time.RFC3339)},
		"sig": {"a+b/c=" + container + "/" + key},
	}.Encode(), nil
}

func (f *fakeBackend) propsOf(container, key string) Properties {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.props[container+"/"+key]
}
