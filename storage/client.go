package storage

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"time"

	"github.com/kbukum/blobkit/errors"
	"github.com/kbukum/blobkit/logger"
	"github.com/kbukum/blobkit/observability"
)

// DefaultCacheControl is applied when an upload names none, and always for
// objects in private containers.
const DefaultCacheControl = "private"

// Options configure a Client.
type Options struct {
	// ConnectionString selects and configures the backend. Empty targets the
	// development emulator.
	ConnectionString string
	// Backend, when set, is used instead of opening ConnectionString.
	Backend Backend
	// DefaultContainer is used by operations that name no container.
	DefaultContainer string
	// DefaultAccess is applied to containers the Client creates.
	DefaultAccess Access
	// KeyNamer names objects for UploadGenerated.
	KeyNamer KeyNamer
	Logger   *logger.Logger
	Metrics  *observability.Metrics
}

// UploadOptions are the optional parameters of an upload.
type UploadOptions struct {
	Container    string
	ContentType  string
	CacheControl string
}

// Client is the storage facade: uploads, downloads, deletes and URL
// generation against lazily created containers.
type Client struct {
	endpoint Endpoint
	backend  Backend
	registry *Registry
	keys     KeyNamer
	log      *logger.Logger
	metrics  *observability.Metrics
}

// New creates a Client. The backend is opened from opts.ConnectionString
// unless opts.Backend is set.
func New(opts Options) (*Client, error) {
	log := opts.Logger
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	log = log.WithComponent("storage")

	ep, err := ParseConnectionString(opts.ConnectionString)
	if err != nil {
		return nil, invalidArgument("connection_string", err.Error()).WithCause(err)
	}

	backend := opts.Backend
	if backend == nil {
		backend, err = Open(ep, log)
		if err != nil {
			return nil, err
		}
	}

	access := opts.DefaultAccess
	if access == "" {
		access = AccessPrivate
	}
	if _, err := ParseAccess(string(access)); err != nil {
		return nil, invalidArgument("default_access", err.Error())
	}

	return &Client{
		endpoint: ep,
		backend:  backend,
		registry: NewRegistry(backend, opts.DefaultContainer, access, log, opts.Metrics),
		keys:     opts.KeyNamer,
		log:      log,
		metrics:  opts.Metrics,
	}, nil
}

// Endpoint returns the connection context the Client was built with.
func (c *Client) Endpoint() Endpoint { return c.endpoint }

// Backend returns the underlying storage backend.
func (c *Client) Backend() Backend { return c.backend }

// Registry returns the Client's container registry.
func (c *Client) Registry() *Registry { return c.registry }

// Close releases the backend if it holds resources.
func (c *Client) Close() error {
	if closer, ok := c.backend.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Upload writes r to key and returns the key. The object is replaced if it
// exists. Objects in private containers always get cache-control "private".
func (c *Client) Upload(ctx context.Context, r io.Reader, key string, opts UploadOptions) (_ string, err error) {
	ctx, done := c.begin(ctx, observability.SpanUpload, key)
	defer func() { done(err) }()

	if r == nil {
		return "", invalidArgument("source", "byte source is required")
	}
	if key == "" {
		return "", invalidArgument("key", "object key is required")
	}

	container, err := c.registry.Resolve(ctx, opts.Container)
	if err != nil {
		return "", err
	}
	observability.SetSpanAttribute(ctx, observability.AttrContainer, container.Name())

	if err := c.backend.PutObject(ctx, container.Name(), key, r); err != nil {
		return "", unavailable("put object", err)
	}

	props := Properties{
		ContentType:  opts.ContentType,
		CacheControl: cacheControlFor(container, opts.CacheControl),
	}
	if err := c.backend.SetProperties(ctx, container.Name(), key, props); err != nil {
		return "", unavailable("set properties", err)
	}

	c.log.Debug("object uploaded", logger.Fields(
		logger.FieldContainer, container.Name(),
		logger.FieldKey, key,
		"cache_control", props.CacheControl,
	))
	return key, nil
}

// UploadBytes uploads data to key. It behaves exactly like Upload.
func (c *Client) UploadBytes(ctx context.Context, data []byte, key string, opts UploadOptions) (string, error) {
	if data == nil {
		return "", invalidArgument("source", "byte source is required")
	}
	return c.Upload(ctx, bytes.NewReader(data), key, opts)
}

// UploadGenerated uploads r under a key chosen by the configured KeyNamer.
func (c *Client) UploadGenerated(ctx context.Context, r io.Reader, opts UploadOptions) (string, error) {
	if c.keys == nil {
		return "", invalidArgument("key", "no key naming policy configured")
	}
	return c.Upload(ctx, r, c.keys.NewKey(opts), opts)
}

// StreamResource downloads the whole object into memory and returns it
// positioned at offset zero.
func (c *Client) StreamResource(ctx context.Context, key, containerName string) (_ io.ReadSeeker, err error) {
	ctx, done := c.begin(ctx, observability.SpanStream, key)
	defer func() { done(err) }()

	if key == "" {
		return nil, invalidArgument("key", "object key is required")
	}

	container, err := c.registry.Resolve(ctx, containerName)
	if err != nil {
		return nil, err
	}
	observability.SetSpanAttribute(ctx, observability.AttrContainer, container.Name())

	body, err := c.backend.GetObject(ctx, container.Name(), key)
	if err != nil {
		return nil, classify("get object", container.Name(), key, err)
	}
	defer body.Close() //nolint:errcheck // read-only body

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, unavailable("read object", err)
	}

	c.log.Debug("object downloaded", logger.Fields(
		logger.FieldContainer, container.Name(),
		logger.FieldKey, key,
		logger.FieldBytes, len(data),
	))
	return bytes.NewReader(data), nil
}

// DeleteResource deletes the object if it exists. Deleting an absent object
// succeeds.
func (c *Client) DeleteResource(ctx context.Context, key, containerName string) (err error) {
	ctx, done := c.begin(ctx, observability.SpanDelete, key)
	defer func() { done(err) }()

	if key == "" {
		return invalidArgument("key", "object key is required")
	}

	container, err := c.registry.Resolve(ctx, containerName)
	if err != nil {
		return err
	}
	observability.SetSpanAttribute(ctx, observability.AttrContainer, container.Name())

	if err := c.backend.DeleteObject(ctx, container.Name(), key); err != nil && !stderrors.Is(err, ErrObjectNotFound) {
		return unavailable("delete object", err)
	}
	return nil
}

// BlobURL returns an address for the object. Objects in public-read
// containers get their plain address. Private containers require expiry and
// get a read-only signed URL valid until then; an expiry in the past is
// signed as given.
func (c *Client) BlobURL(ctx context.Context, key, containerName string, expiry *time.Time) (_ string, err error) {
	ctx, done := c.begin(ctx, observability.SpanBlobURL, key)
	defer func() { done(err) }()

	if key == "" {
		return "", invalidArgument("key", "object key is required")
	}

	container, err := c.registry.Resolve(ctx, containerName)
	if err != nil {
		return "", err
	}
	observability.SetSpanAttribute(ctx, observability.AttrContainer, container.Name())

	base, err := c.backend.ObjectURL(container.Name(), key)
	if err != nil {
		return "", errors.Internal(err)
	}
	if container.IsPublic() {
		observability.SetSpanAttribute(ctx, observability.AttrSigned, false)
		return base, nil
	}

	if expiry == nil {
		return "", invalidArgument("expiry", "expiry is required for objects in private containers")
	}

	policy := ReadPolicy{Permission: PermissionRead, Expiry: *expiry}
	token, err := c.backend.SignRead(ctx, container.Name(), key, policy)
	if err != nil {
		return "", unavailable("sign read", err)
	}
	observability.SetSpanAttribute(ctx, observability.AttrSigned, true)

	signed, err := appendQuery(base, token)
	if err != nil {
		return "", errors.Internal(err)
	}
	return signed, nil
}

// begin starts the span for an operation and returns the function that
// records its outcome.
func (c *Client) begin(ctx context.Context, op, key string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, op)
	observability.SetSpanAttribute(ctx, observability.AttrObjectKey, key)

	return ctx, func(err error) {
		defer span.End()
		status := "ok"
		if err != nil {
			status = "error"
			observability.SetSpanError(ctx, err)
			c.metrics.RecordError(ctx, string(errors.Wrap(err).Code), op)
			c.log.WithContext(ctx).Debug("storage operation failed", logger.MergeWithError(logger.Fields(
				logger.FieldOperation, op,
				logger.FieldKey, key,
			), err))
		}
		c.metrics.RecordOperation(ctx, op, status, time.Since(start))
	}
}

func cacheControlFor(c *Container, requested string) string {
	if !c.IsPublic() || requested == "" {
		return DefaultCacheControl
	}
	return requested
}
