// Package local stores containers as directories on the local filesystem.
// Object properties and container access modes live in JSON sidecar files.
package local

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/kbukum/blobkit/logger"
	"github.com/kbukum/blobkit/storage"
	"github.com/kbukum/blobkit/storage/signer"
)

func init() {
	storage.RegisterFactory(storage.ProviderLocal, func(ep storage.Endpoint, log *logger.Logger) (storage.Backend, error) {
		return New(ep, log)
	})
}

const (
	objectsDir   = "objects"
	metaDir      = "meta"
	containerDoc = "container.json"
)

type containerMeta struct {
	Access storage.Access `json:"access"`
}

// Backend implements storage.Backend on a directory tree:
//
//	<base>/<container>/container.json
//	<base>/<container>/objects/<key>
//	<base>/<container>/meta/<key>.json
type Backend struct {
	basePath string
	address  *url.URL
	signer   *signer.Signer
	log      *logger.Logger
}

var _ storage.Backend = (*Backend)(nil)

// New creates a filesystem backend rooted at ep.BasePath. When ep.Address is
// set, object URLs are rooted there; otherwise they are file:// URLs.
func New(ep storage.Endpoint, log *logger.Logger) (*Backend, error) {
	if ep.BasePath == "" {
		return nil, fmt.Errorf("local: base path is required")
	}
	abs, err := filepath.Abs(ep.BasePath)
	if err != nil {
		return nil, fmt.Errorf("local: resolve base path: %w", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("local: create base directory: %w", err)
	}

	var address *url.URL
	if ep.Address != "" {
		if address, err = url.Parse(ep.Address); err != nil {
			return nil, fmt.Errorf("local: parse endpoint: %w", err)
		}
	}

	secret := ep.SecretKey
	if secret == "" {
		secret = storage.DevelopmentSecretKey
	}
	s, err := signer.New(secret, ep.AccessKey)
	if err != nil {
		return nil, fmt.Errorf("local: %w", err)
	}

	if log == nil {
		log = logger.NewNop()
	}
	return &Backend{
		basePath: abs,
		address:  address,
		signer:   s,
		log:      log.WithComponent("storage.local"),
	}, nil
}

// Name returns the provider name.
func (b *Backend) Name() string { return storage.ProviderLocal }

// IsAvailable reports whether the base directory is reachable.
func (b *Backend) IsAvailable(_ context.Context) bool {
	info, err := os.Stat(b.basePath)
	return err == nil && info.IsDir()
}

// CreateContainerIfNotExists creates the container directory and records its
// access mode. An existing container keeps its recorded mode.
func (b *Backend) CreateContainerIfNotExists(_ context.Context, name string, access storage.Access) error {
	dir, err := b.containerDir(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Join(dir, objectsDir), 0o750); err != nil {
		return fmt.Errorf("local: create container: %w", err)
	}

	doc, err := json.Marshal(containerMeta{Access: access})
	if err != nil {
		return fmt.Errorf("local: encode container metadata: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, containerDoc), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if stderrors.Is(err, fs.ErrExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("local: write container metadata: %w", err)
	}
	defer f.Close() //nolint:errcheck // write error checked below

	if _, err := f.Write(doc); err != nil {
		return fmt.Errorf("local: write container metadata: %w", err)
	}
	b.log.Debug("container created", logger.Fields(logger.FieldContainer, name, logger.FieldAccess, string(access)))
	return nil
}

// ContainerAccess reads the recorded access mode.
func (b *Backend) ContainerAccess(_ context.Context, name string) (storage.Access, error) {
	dir, err := b.containerDir(name)
	if err != nil {
		return "", err
	}
	var meta containerMeta
	if err := readJSON(filepath.Join(dir, containerDoc), &meta); err != nil {
		return "", fmt.Errorf("local: read container metadata: %w", err)
	}
	return storage.ParseAccess(string(meta.Access))
}

// PutObject writes r to a temporary file and renames it over the object.
// Existing properties are removed.
func (b *Backend) PutObject(_ context.Context, container, key string, r io.Reader) error {
	objPath, metaPath, err := b.paths(container, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(objPath), 0o750); err != nil {
		return fmt.Errorf("local: create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(objPath), ".upload-*")
	if err != nil {
		return fmt.Errorf("local: create file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("local: write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("local: close file: %w", err)
	}
	if err := os.Rename(tmp.Name(), objPath); err != nil {
		return fmt.Errorf("local: replace object: %w", err)
	}
	if err := os.Remove(metaPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("local: clear properties: %w", err)
	}
	return nil
}

// SetProperties writes the object's sidecar file.
func (b *Backend) SetProperties(_ context.Context, container, key string, props storage.Properties) error {
	objPath, metaPath, err := b.paths(container, key)
	if err != nil {
		return err
	}
	if _, err := os.Stat(objPath); os.IsNotExist(err) {
		return fmt.Errorf("local: %s/%s: %w", container, key, storage.ErrObjectNotFound)
	}
	if err := os.MkdirAll(filepath.Dir(metaPath), 0o750); err != nil {
		return fmt.Errorf("local: create directory: %w", err)
	}
	doc, err := json.Marshal(props)
	if err != nil {
		return fmt.Errorf("local: encode properties: %w", err)
	}
	if err := os.WriteFile(metaPath, doc, 0o640); err != nil {
		return fmt.Errorf("local: write properties: %w", err)
	}
	return nil
}

// Properties reads the object's sidecar file. Objects without one have
// empty properties.
func (b *Backend) Properties(container, key string) (storage.Properties, error) {
	_, metaPath, err := b.paths(container, key)
	if err != nil {
		return storage.Properties{}, err
	}
	var props storage.Properties
	if err := readJSON(metaPath, &props); err != nil && !os.IsNotExist(err) {
		return storage.Properties{}, fmt.Errorf("local: read properties: %w", err)
	}
	return props, nil
}

// GetObject opens the object file.
func (b *Backend) GetObject(_ context.Context, container, key string) (io.ReadCloser, error) {
	objPath, _, err := b.paths(container, key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(objPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("local: %s/%s: %w", container, key, storage.ErrObjectNotFound)
		}
		return nil, fmt.Errorf("local: open file: %w", err)
	}
	return f, nil
}

// DeleteObject removes the object and its sidecar. Returns nil if the object
// does not exist.
func (b *Backend) DeleteObject(_ context.Context, container, key string) error {
	objPath, metaPath, err := b.paths(container, key)
	if err != nil {
		return err
	}
	for _, p := range []string{objPath, metaPath} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("local: delete file: %w", err)
		}
	}
	return nil
}

// ObjectURL returns address/container/key, or a file:// URL without an address.
func (b *Backend) ObjectURL(container, key string) (string, error) {
	if b.address != nil {
		return b.address.JoinPath(container, key).String(), nil
	}
	objPath, _, err := b.paths(container, key)
	if err != nil {
		return "", err
	}
	u := &url.URL{Scheme: "file", Path: filepath.ToSlash(objPath)}
	return u.String(), nil
}

// SignRead issues a read token for the object.
func (b *Backend) SignRead(_ context.Context, container, key string, policy storage.ReadPolicy) (string, error) {
	return b.signer.Sign(container, key, policy)
}

func (b *Backend) containerDir(name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("local: invalid container name %q", name)
	}
	return filepath.Join(b.basePath, name), nil
}

// paths maps a key to its object and sidecar paths, rejecting keys that
// would escape the container.
func (b *Backend) paths(container, key string) (objPath, metaPath string, err error) {
	dir, err := b.containerDir(container)
	if err != nil {
		return "", "", err
	}
	clean := filepath.Clean(filepath.FromSlash(key))
	if !filepath.IsLocal(clean) {
		return "", "", fmt.Errorf("local: invalid object key %q", key)
	}
	return filepath.Join(dir, objectsDir, clean), filepath.Join(dir, metaDir, clean+".json"), nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
