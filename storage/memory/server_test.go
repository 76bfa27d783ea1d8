package memory

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/blobkit/errors"
	"github.com/kbukum/blobkit/logger"
	"github.com/kbukum/blobkit/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newServedClient starts the emulator over HTTP and returns a Client whose
// URLs point at it.
func newServedClient(t *testing.T, access storage.Access) (*storage.Client, *Backend) {
	t.Helper()

	var b *Backend
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.Handler().ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	ep := storage.DevelopmentEndpoint()
	ep.Address = srv.URL
	var err error
	b, err = New(ep, logger.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	client, err := storage.New(storage.Options{
		Backend:          b,
		DefaultContainer: "assets",
		DefaultAccess:    access,
		Logger:           logger.NewNop(),
	})
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	return client, b
}

func get(t *testing.T, rawURL string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(rawURL)
	if err != nil {
		t.Fatalf("GET %s: %v", rawURL, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func errorCode(t *testing.T, body string) errors.ErrorCode {
	t.Helper()
	var res errors.ErrorResponse
	if err := json.Unmarshal([]byte(body), &res); err != nil {
		t.Fatalf("error body is not JSON: %v (%q)", err, body)
	}
	return res.Error.Code
}

func TestServe_SignedURL(t *testing.T) {
	client, _ := newServedClient(t, storage.AccessPrivate)
	ctx := context.Background()

	if _, err := client.UploadBytes(ctx, []byte("hello"), "greeting.txt", storage.UploadOptions{ContentType: "text/plain"}); err != nil {
		t.Fatalf("upload: %v", err)
	}

	expiry := time.Now().Add(time.Hour)
	signed, err := client.BlobURL(ctx, "greeting.txt", "", &expiry)
	if err != nil {
		t.Fatalf("BlobURL: %v", err)
	}

	resp, body := get(t, signed)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.StatusCode, body)
	}
	if body != "hello" {
		t.Errorf("body = %q", body)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("content-type = %q", ct)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "private" {
		t.Errorf("cache-control = %q", cc)
	}

	u, _ := url.Parse(signed)
	u.RawQuery = ""
	resp, body = get(t, u.String())
	if resp.StatusCode != http.StatusForbidden || errorCode(t, body) != errors.ErrCodeForbidden {
		t.Errorf("unsigned read: status %d body %s", resp.StatusCode, body)
	}
}

func TestServe_ExpiredToken(t *testing.T) {
	client, _ := newServedClient(t, storage.AccessPrivate)
	ctx := context.Background()
	_, _ = client.UploadBytes(ctx, []byte("hello"), "greeting.txt", storage.UploadOptions{})

	past := time.Now().Add(-time.Minute)
	signed, err := client.BlobURL(ctx, "greeting.txt", "", &past)
	if err != nil {
		t.Fatalf("BlobURL with past expiry: %v", err)
	}

	resp, body := get(t, signed)
	if resp.StatusCode != http.StatusForbidden || errorCode(t, body) != errors.ErrCodeTokenExpired {
		t.Errorf("expired read: status %d body %s", resp.StatusCode, body)
	}
}

func TestServe_TokenScopedToObject(t *testing.T) {
	client, _ := newServedClient(t, storage.AccessPrivate)
	ctx := context.Background()
	_, _ = client.UploadBytes(ctx, []byte("a"), "a.txt", storage.UploadOptions{})
	_, _ = client.UploadBytes(ctx, []byte("b"), "b.txt", storage.UploadOptions{})

	expiry := time.Now().Add(time.Hour)
	signed, _ := client.BlobURL(ctx, "a.txt", "", &expiry)
	swapped := strings.Replace(signed, "/a.txt?", "/b.txt?", 1)

	resp, _ := get(t, swapped)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403", resp.StatusCode)
	}
}

func TestServe_PublicContainer(t *testing.T) {
	client, _ := newServedClient(t, storage.AccessPublicRead)
	ctx := context.Background()
	_, _ = client.UploadBytes(ctx, []byte("logo"), "logo.png", storage.UploadOptions{
		ContentType:  "image/png",
		CacheControl: "public, max-age=60",
	})

	plain, err := client.BlobURL(ctx, "logo.png", "", nil)
	if err != nil {
		t.Fatalf("BlobURL: %v", err)
	}
	if strings.Contains(plain, "?") {
		t.Errorf("public URL carries a query: %q", plain)
	}

	resp, body := get(t, plain)
	if resp.StatusCode != http.StatusOK || body != "logo" {
		t.Fatalf("status %d body %q", resp.StatusCode, body)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "public, max-age=60" {
		t.Errorf("cache-control = %q", cc)
	}
}

func TestServe_Missing(t *testing.T) {
	client, b := newServedClient(t, storage.AccessPublicRead)
	ctx := context.Background()
	_, _ = client.Registry().Resolve(ctx, "")

	u, _ := b.ObjectURL("assets", "missing.txt")
	resp, body := get(t, u)
	if resp.StatusCode != http.StatusNotFound || errorCode(t, body) != errors.ErrCodeNotFound {
		t.Errorf("missing object: status %d body %s", resp.StatusCode, body)
	}

	u, _ = b.ObjectURL("nowhere", "x")
	resp, _ = get(t, u)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing container: status %d", resp.StatusCode)
	}
}
