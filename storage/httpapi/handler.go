// Package httpapi exposes a storage.Client over HTTP with Gin.
//
//	POST   /v1/objects         multipart upload (file, key, container, cache_control, content_type)
//	GET    /v1/objects/*key    download (?container=)
//	DELETE /v1/objects/*key    delete (?container=)
//	GET    /v1/urls/*key       object URL (?container=&ttl=)
//
// Every operation runs through the storage provider adapters wrapped with
// tracing, logging and metrics middleware.
package httpapi

import (
	stderrors "errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/blobkit/errors"
	"github.com/kbukum/blobkit/logger"
	"github.com/kbukum/blobkit/observability"
	"github.com/kbukum/blobkit/provider"
	"github.com/kbukum/blobkit/server"
	"github.com/kbukum/blobkit/storage"
	"github.com/kbukum/blobkit/validation"
)

// Form fields and query parameters.
const (
	FieldFile         = "file"
	FieldKey          = "key"
	FieldContainer    = "container"
	FieldCacheControl = "cache_control"
	FieldContentType  = "content_type"
	ParamTTL          = "ttl"
)

// Options configure a Handler.
type Options struct {
	// ServiceName prefixes span names.
	ServiceName string
	// PresignTTL is the URL lifetime when a request names no ttl.
	PresignTTL time.Duration
	Logger     *logger.Logger
	Metrics    *observability.Metrics
}

// Handler serves the blob API.
type Handler struct {
	upload     provider.RequestResponse[storage.UploadRequest, *storage.UploadResponse]
	download   provider.RequestResponse[storage.DownloadRequest, *storage.DownloadResponse]
	remove     provider.RequestResponse[storage.DeleteRequest, struct{}]
	objectURL  provider.RequestResponse[storage.URLRequest, *storage.URLResponse]
	presignTTL time.Duration
	now        func() time.Time
	// defaultContainer is reported when an upload names no container.
	defaultContainer string
}

// New creates a Handler for client.
func New(client *storage.Client, opts Options) *Handler {
	if opts.ServiceName == "" {
		opts.ServiceName = "blobkit"
	}
	if opts.PresignTTL <= 0 {
		opts.PresignTTL = storage.DefaultPresignTTL
	}
	if opts.Logger == nil {
		opts.Logger = logger.GetGlobalLogger()
	}
	log := opts.Logger.WithComponent("httpapi")

	return &Handler{
		upload:           wrap[storage.UploadRequest, *storage.UploadResponse](storage.NewUploadProvider("upload", client), opts.ServiceName, log, opts.Metrics),
		download:         wrap[storage.DownloadRequest, *storage.DownloadResponse](storage.NewDownloadProvider("download", client), opts.ServiceName, log, opts.Metrics),
		remove:           wrap[storage.DeleteRequest, struct{}](storage.NewDeleteProvider("delete", client), opts.ServiceName, log, opts.Metrics),
		objectURL:        wrap[storage.URLRequest, *storage.URLResponse](storage.NewURLProvider("url", client), opts.ServiceName, log, opts.Metrics),
		presignTTL:       opts.PresignTTL,
		now:              time.Now,
		defaultContainer: client.Registry().DefaultName(),
	}
}

func wrap[I, O any](p provider.RequestResponse[I, O], service string, log *logger.Logger, metrics *observability.Metrics) provider.RequestResponse[I, O] {
	return provider.Chain(
		provider.WithTracing[I, O](service),
		provider.WithLogging[I, O](log),
		provider.WithMetrics[I, O](metrics),
	)(p)
}

// RegisterRoutes mounts the API on r.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	v1 := r.Group("/v1")
	v1.POST("/objects", h.Upload)
	v1.GET("/objects/*key", h.Download)
	v1.DELETE("/objects/*key", h.Delete)
	v1.GET("/urls/*key", h.URL)
}

// UploadResult is the body of a successful upload.
type UploadResult struct {
	Key       string `json:"key"`
	Container string `json:"container,omitempty"`
}

// Upload stores the multipart "file" part. The part's content type is
// forwarded unless content_type is given; cache_control defaults to private.
// An empty key lets the server name the object.
func (h *Handler) Upload(c *gin.Context) {
	fh, err := c.FormFile(FieldFile)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			server.RespondWithError(c, errors.New(errors.ErrCodeInvalidInput, "Upload exceeds the size limit", http.StatusRequestEntityTooLarge).
				WithDetail("limit", tooLarge.Limit))
			return
		}
		server.RespondWithError(c, errors.MissingField(FieldFile).WithCause(err))
		return
	}

	f, err := fh.Open()
	if err != nil {
		server.RespondWithError(c, errors.Internal(err))
		return
	}
	defer f.Close() //nolint:errcheck // read-only multipart file

	contentType := c.PostForm(FieldContentType)
	if contentType == "" {
		contentType = fh.Header.Get("Content-Type")
	}
	cacheControl := c.DefaultPostForm(FieldCacheControl, storage.DefaultCacheControl)
	container := c.PostForm(FieldContainer)
	key := c.PostForm(FieldKey)

	v := validation.New().
		ContainerName(FieldContainer, container).
		Custom(key == "" || validation.IsObjectKey(key), FieldKey, "must be a valid object key")
	if appErr := v.Validate(); appErr != nil {
		server.RespondWithError(c, appErr)
		return
	}

	resp, err := h.upload.Execute(c.Request.Context(), storage.UploadRequest{
		Key:  key,
		Body: f,
		Options: storage.UploadOptions{
			Container:    container,
			ContentType:  contentType,
			CacheControl: cacheControl,
		},
	})
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	if container == "" {
		container = h.defaultContainer
	}
	server.RespondCreated(c, UploadResult{Key: resp.Key, Container: container})
}

// Download streams the object. Range and conditional requests are honored.
func (h *Handler) Download(c *gin.Context) {
	key := objectKey(c)
	resp, err := h.download.Execute(c.Request.Context(), storage.DownloadRequest{
		Key:       key,
		Container: c.Query(FieldContainer),
	})
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	http.ServeContent(c.Writer, c.Request, key, time.Time{}, resp.Body)
}

// Delete removes the object. Absent objects are not an error.
func (h *Handler) Delete(c *gin.Context) {
	_, err := h.remove.Execute(c.Request.Context(), storage.DeleteRequest{
		Key:       objectKey(c),
		Container: c.Query(FieldContainer),
	})
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondNoContent(c)
}

// URLResult is the body of a URL request.
type URLResult struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// URL issues an object address. ttl is a Go duration ("15m"); it bounds the
// signature on private containers and is ignored for public ones.
func (h *Handler) URL(c *gin.Context) {
	ttl := h.presignTTL
	if raw := c.Query(ParamTTL); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			server.RespondWithError(c, errors.InvalidInput(ParamTTL, "must be a duration such as 15m").WithCause(err))
			return
		}
		ttl = d
	}
	expiry := h.now().Add(ttl).UTC()

	resp, err := h.objectURL.Execute(c.Request.Context(), storage.URLRequest{
		Key:       objectKey(c),
		Container: c.Query(FieldContainer),
		Expiry:    &expiry,
	})
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, URLResult{URL: resp.URL, ExpiresAt: expiry})
}

func objectKey(c *gin.Context) string {
	return strings.TrimPrefix(c.Param("key"), "/")
}
