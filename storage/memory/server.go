package memory

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/blobkit/errors"
	"github.com/kbukum/blobkit/storage"
	"github.com/kbukum/blobkit/storage/signer"
)

// RegisterRoutes serves objects at GET /:container/*key. Objects in private
// containers require a valid read token in the query string.
func (b *Backend) RegisterRoutes(r gin.IRouter) {
	r.GET("/:container/*key", b.serveObject)
	r.HEAD("/:container/*key", b.serveObject)
}

// Handler returns a standalone gin engine serving the emulator's objects.
func (b *Backend) Handler() http.Handler {
	engine := gin.New()
	b.RegisterRoutes(engine)
	return engine
}

func (b *Backend) serveObject(c *gin.Context) {
	containerName := c.Param("container")
	key := strings.TrimPrefix(c.Param("key"), "/")

	access, err := b.ContainerAccess(c.Request.Context(), containerName)
	if err != nil {
		respondError(c, errors.NotFound("container", containerName).WithCause(err))
		return
	}
	if access != storage.AccessPublicRead {
		if err := b.Verify(c.Query(signer.QueryParam), containerName, key); err != nil {
			respondError(c, err)
			return
		}
	}

	obj, err := b.Stat(containerName, key)
	if err != nil {
		respondError(c, errors.NotFound("object", containerName+"/"+key).WithCause(err))
		return
	}

	contentType := obj.Properties.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if obj.Properties.CacheControl != "" {
		c.Header("Cache-Control", obj.Properties.CacheControl)
	}
	c.Header("Last-Modified", obj.ModTime.UTC().Format(http.TimeFormat))
	c.Data(http.StatusOK, contentType, obj.Data)
}

func respondError(c *gin.Context, err error) {
	appErr := errors.Wrap(err)
	c.AbortWithStatusJSON(appErr.StatusCode(), appErr.ToResponse())
}
