package storage

import (
	"fmt"
	"mime"
	"time"

	"github.com/google/uuid"
)

// KeyNamer picks an object key for uploads that do not name one.
type KeyNamer interface {
	NewKey(opts UploadOptions) string
}

// KeyNamerFunc adapts a function to KeyNamer.
type KeyNamerFunc func(opts UploadOptions) string

// NewKey calls f(opts).
func (f KeyNamerFunc) NewKey(opts UploadOptions) string { return f(opts) }

// UUIDKeys names objects with a random UUID, keeping an extension derived
// from the content type when one is known.
type UUIDKeys struct {
	// Prefix is prepended verbatim, e.g. "uploads/".
	Prefix string
	// Dated inserts a yyyy/mm/dd/ segment after the prefix.
	Dated bool

	now func() time.Time
}

// NewKey returns a fresh key.
func (u UUIDKeys) NewKey(opts UploadOptions) string {
	key := u.Prefix
	if u.Dated {
		now := time.Now
		if u.now != nil {
			now = u.now
		}
		key += now().UTC().Format("2006/01/02") + "/"
	}
	key += uuid.NewString()
	return key + extensionFor(opts.ContentType)
}

// preferredExtensions pins types whose system mime tables list several
// extensions.
var preferredExtensions = map[string]string{
	"text/plain":               ".txt",
	"text/html":                ".html",
	"image/jpeg":               ".jpg",
	"application/octet-stream": "",
}

func extensionFor(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	if ext, ok := preferredExtensions[mediaType]; ok {
		return ext
	}
	if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}

// Key naming policies accepted by NewKeyNamer.
const (
	KeyNamingNone  = "none"
	KeyNamingUUID  = "uuid"
	KeyNamingDated = "dated"
)

// NewKeyNamer returns the key naming policy for a configuration value.
// "" and "none" return nil.
func NewKeyNamer(policy string) (KeyNamer, error) {
	switch policy {
	case "", KeyNamingNone:
		return nil, nil
	case KeyNamingUUID:
		return UUIDKeys{}, nil
	case KeyNamingDated:
		return UUIDKeys{Dated: true}, nil
	default:
		return nil, fmt.Errorf("storage: unknown key naming policy %q", policy)
	}
}
