package storage

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"time"

	"github.com/kbukum/blobkit/provider"
)

// ErrObjectNotFound is returned by backends when an object does not exist.
var ErrObjectNotFound = stderrors.New("storage: object not found")

// Access is the public-access mode of a container.
type Access string

const (
	// AccessPrivate requires a signed URL to read objects.
	AccessPrivate Access = "private"
	// AccessPublicRead lets any holder of an object's address read it.
	AccessPublicRead Access = "public-read"
)

// ParseAccess converts a configuration string into an Access mode.
// The empty string maps to AccessPrivate.
func ParseAccess(s string) (Access, error) {
	switch Access(s) {
	case "", AccessPrivate:
		return AccessPrivate, nil
	case AccessPublicRead:
		return AccessPublicRead, nil
	default:
		return "", fmt.Errorf("storage: unknown access mode %q", s)
	}
}

// Permission is a right granted by a signed read policy.
type Permission string

// PermissionRead grants read access to a single object.
const PermissionRead Permission = "r"

// ReadPolicy is the access policy a signature is issued for.
type ReadPolicy struct {
	Permission Permission
	Expiry     time.Time
}

// Properties are the object metadata written after an upload.
type Properties struct {
	ContentType  string
	CacheControl string
}

// Backend is the remote object-storage service the Client sits on.
//
// Container creation must be idempotent and ContainerAccess must observe
// the result of a CreateContainerIfNotExists that returned before it.
type Backend interface {
	provider.Provider

	// CreateContainerIfNotExists creates the container with the given access
	// mode. An existing container is left untouched.
	CreateContainerIfNotExists(ctx context.Context, name string, access Access) error

	// ContainerAccess reads the container's current access mode.
	ContainerAccess(ctx context.Context, name string) (Access, error)

	// PutObject writes r to the object, replacing any existing object.
	PutObject(ctx context.Context, container, key string, r io.Reader) error

	// SetProperties replaces the object's properties in a single update.
	SetProperties(ctx context.Context, container, key string, props Properties) error

	// GetObject opens the object for reading. Absent objects return
	// an error wrapping ErrObjectNotFound.
	GetObject(ctx context.Context, container, key string) (io.ReadCloser, error)

	// DeleteObject removes the object. Absent objects are not an error.
	DeleteObject(ctx context.Context, container, key string) error

	// ObjectURL returns the object's plain, unsigned address.
	ObjectURL(container, key string) (string, error)

	// SignRead returns an encoded query string granting policy on the object.
	SignRead(ctx context.Context, container, key string, policy ReadPolicy) (string, error)
}
