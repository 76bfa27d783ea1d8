package storage

import (
	"context"
	"io"
	"time"

	"github.com/kbukum/blobkit/provider"
)

// --- Request / Response types for storage operations ---

// UploadRequest describes an upload. An empty Key asks the Client's
// KeyNamer for one.
type UploadRequest struct {
	Key     string
	Body    io.Reader
	Options UploadOptions
}

// UploadResponse holds the key the object was stored under.
type UploadResponse struct {
	Key string
}

// DownloadRequest describes a download.
type DownloadRequest struct {
	Key       string
	Container string
}

// DownloadResponse holds the buffered object.
type DownloadResponse struct {
	Body io.ReadSeeker
}

// DeleteRequest describes a delete.
type DeleteRequest struct {
	Key       string
	Container string
}

// URLRequest asks for an object address valid until Expiry.
type URLRequest struct {
	Key       string
	Container string
	Expiry    *time.Time
}

// URLResponse holds an object address.
type URLResponse struct {
	URL string
}

// clientProvider carries the parts shared by every adapter.
type clientProvider struct {
	name   string
	client *Client
}

func (p clientProvider) Name() string { return p.name }

func (p clientProvider) IsAvailable(ctx context.Context) bool {
	return p.client != nil && p.client.Backend().IsAvailable(ctx)
}

// --- Provider adapters ---

// UploadProvider exposes Client uploads as a RequestResponse provider.
type UploadProvider struct{ clientProvider }

// NewUploadProvider creates a RequestResponse provider for uploads.
func NewUploadProvider(name string, c *Client) *UploadProvider {
	return &UploadProvider{clientProvider{name: name, client: c}}
}

func (p *UploadProvider) Execute(ctx context.Context, req UploadRequest) (*UploadResponse, error) {
	var (
		key string
		err error
	)
	if req.Key == "" {
		key, err = p.client.UploadGenerated(ctx, req.Body, req.Options)
	} else {
		key, err = p.client.Upload(ctx, req.Body, req.Key, req.Options)
	}
	if err != nil {
		return nil, err
	}
	return &UploadResponse{Key: key}, nil
}

// DownloadProvider exposes StreamResource as a RequestResponse provider.
type DownloadProvider struct{ clientProvider }

// NewDownloadProvider creates a RequestResponse provider for downloads.
func NewDownloadProvider(name string, c *Client) *DownloadProvider {
	return &DownloadProvider{clientProvider{name: name, client: c}}
}

func (p *DownloadProvider) Execute(ctx context.Context, req DownloadRequest) (*DownloadResponse, error) {
	body, err := p.client.StreamResource(ctx, req.Key, req.Container)
	if err != nil {
		return nil, err
	}
	return &DownloadResponse{Body: body}, nil
}

// DeleteProvider exposes DeleteResource as a RequestResponse provider.
type DeleteProvider struct{ clientProvider }

// NewDeleteProvider creates a RequestResponse provider for deletes.
func NewDeleteProvider(name string, c *Client) *DeleteProvider {
	return &DeleteProvider{clientProvider{name: name, client: c}}
}

func (p *DeleteProvider) Execute(ctx context.Context, req DeleteRequest) (struct{}, error) {
	return struct{}{}, p.client.DeleteResource(ctx, req.Key, req.Container)
}

// URLProvider exposes BlobURL as a RequestResponse provider.
type URLProvider struct{ clientProvider }

// NewURLProvider creates a RequestResponse provider for object addresses.
func NewURLProvider(name string, c *Client) *URLProvider {
	return &URLProvider{clientProvider{name: name, client: c}}
}

func (p *URLProvider) Execute(ctx context.Context, req URLRequest) (*URLResponse, error) {
	u, err := p.client.BlobURL(ctx, req.Key, req.Container, req.Expiry)
	if err != nil {
		return nil, err
	}
	return &URLResponse{URL: u}, nil
}

// compile-time checks
var (
	_ provider.RequestResponse[UploadRequest, *UploadResponse]     = (*UploadProvider)(nil)
	_ provider.RequestResponse[DownloadRequest, *DownloadResponse] = (*DownloadProvider)(nil)
	_ provider.RequestResponse[DeleteRequest, struct{}]            = (*DeleteProvider)(nil)
	_ provider.RequestResponse[URLRequest, *URLResponse]           = (*URLProvider)(nil)
)
