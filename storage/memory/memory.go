// Package memory provides an in-process storage backend that behaves like a
// small object-storage service: containers with access modes, objects with
// properties, and signed read tokens that its HTTP handler enforces.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/kbukum/blobkit/logger"
	"github.com/kbukum/blobkit/storage"
	"github.com/kbukum/blobkit/storage/signer"
)

func init() {
	storage.RegisterFactory(storage.ProviderMemory, func(ep storage.Endpoint, log *logger.Logger) (storage.Backend, error) {
		return New(ep, log)
	})
}

// Object is a stored object with its properties.
type Object struct {
	Data       []byte
	Properties storage.Properties
	ModTime    time.Time
}

type container struct {
	access  storage.Access
	objects map[string]*Object
}

// Backend implements storage.Backend in memory.
type Backend struct {
	base   *url.URL
	signer *signer.Signer
	log    *logger.Logger

	mu         sync.RWMutex
	containers map[string]*container
}

var _ storage.Backend = (*Backend)(nil)

// New creates an empty emulator. Object URLs are rooted at ep.Address and
// read tokens are signed with ep.SecretKey.
func New(ep storage.Endpoint, log *logger.Logger) (*Backend, error) {
	address := ep.Address
	if address == "" {
		address = storage.DevelopmentAddress
	}
	base, err := url.Parse(address)
	if err != nil {
		return nil, fmt.Errorf("memory: parse endpoint: %w", err)
	}

	secret := ep.SecretKey
	if secret == "" {
		secret = storage.DevelopmentSecretKey
	}
	s, err := signer.New(secret, ep.AccessKey)
	if err != nil {
		return nil, fmt.Errorf("memory: %w", err)
	}

	if log == nil {
		log = logger.NewNop()
	}
	return &Backend{
		base:       base,
		signer:     s,
		log:        log.WithComponent("storage.memory"),
		containers: make(map[string]*container),
	}, nil
}

// Name returns the provider name.
func (b *Backend) Name() string { return storage.ProviderMemory }

// IsAvailable always reports true.
func (b *Backend) IsAvailable(_ context.Context) bool { return true }

// CreateContainerIfNotExists creates the container unless it exists.
func (b *Backend) CreateContainerIfNotExists(_ context.Context, name string, access storage.Access) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.containers[name]; ok {
		return nil
	}
	b.containers[name] = &container{access: access, objects: make(map[string]*Object)}
	b.log.Debug("container created", logger.Fields(logger.FieldContainer, name, logger.FieldAccess, string(access)))
	return nil
}

// ContainerAccess returns the container's access mode.
func (b *Backend) ContainerAccess(_ context.Context, name string) (storage.Access, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c, ok := b.containers[name]
	if !ok {
		return "", fmt.Errorf("memory: container %q does not exist", name)
	}
	return c.access, nil
}

// SetContainerAccess changes a container's access mode.
func (b *Backend) SetContainerAccess(name string, access storage.Access) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.containers[name]
	if !ok {
		return fmt.Errorf("memory: container %q does not exist", name)
	}
	c.access = access
	return nil
}

// PutObject stores the contents of r, replacing any existing object and
// clearing its properties.
func (b *Backend) PutObject(_ context.Context, containerName, key string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("memory: read upload: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.containers[containerName]
	if !ok {
		return fmt.Errorf("memory: container %q does not exist", containerName)
	}
	c.objects[key] = &Object{Data: data, ModTime: time.Now()}
	return nil
}

// SetProperties replaces the object's properties.
func (b *Backend) SetProperties(_ context.Context, containerName, key string, props storage.Properties) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	obj, err := b.object(containerName, key)
	if err != nil {
		return err
	}
	obj.Properties = props
	return nil
}

// GetObject returns a reader over a copy of the object's data.
func (b *Backend) GetObject(_ context.Context, containerName, key string) (io.ReadCloser, error) {
	obj, err := b.Stat(containerName, key)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(obj.Data)), nil
}

// Stat returns a copy of the object and its properties.
func (b *Backend) Stat(containerName, key string) (Object, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	obj, err := b.object(containerName, key)
	if err != nil {
		return Object{}, err
	}
	cp := *obj
	cp.Data = bytes.Clone(obj.Data)
	return cp, nil
}

// DeleteObject removes the object if it exists.
func (b *Backend) DeleteObject(_ context.Context, containerName, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if c, ok := b.containers[containerName]; ok {
		delete(c.objects, key)
	}
	return nil
}

// ObjectURL returns base/container/key.
func (b *Backend) ObjectURL(containerName, key string) (string, error) {
	return b.base.JoinPath(containerName, key).String(), nil
}

// SignRead issues a read token for the object.
func (b *Backend) SignRead(_ context.Context, containerName, key string, policy storage.ReadPolicy) (string, error) {
	return b.signer.Sign(containerName, key, policy)
}

// Verify checks a read token issued by SignRead.
func (b *Backend) Verify(token, containerName, key string) error {
	return b.signer.Verify(token, containerName, key)
}

// object must be called with b.mu held.
func (b *Backend) object(containerName, key string) (*Object, error) {
	c, ok := b.containers[containerName]
	if !ok {
		return nil, fmt.Errorf("memory: %s/%s: %w", containerName, key, storage.ErrObjectNotFound)
	}
	obj, ok := c.objects[key]
	if !ok {
		return nil, fmt.Errorf("memory: %s/%s: %w", containerName, key, storage.ErrObjectNotFound)
	}
	return obj, nil
}
