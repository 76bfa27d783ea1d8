package local

import (
	"context"
	"errors"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/blobkit/logger"
	"github.com/kbukum/blobkit/storage"
	"github.com/kbukum/blobkit/storage/signer"
)

func newBackend(t *testing.T, address string) *Backend {
	t.Helper()
	b, err := New(storage.Endpoint{Provider: storage.ProviderLocal, BasePath: t.TempDir(), Address: address, SecretKey: "s3cret"}, logger.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return b
}

func TestContainerAccessPersists(t *testing.T) {
	b := newBackend(t, "")
	ctx := context.Background()

	if err := b.CreateContainerIfNotExists(ctx, "public", storage.AccessPublicRead); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := b.CreateContainerIfNotExists(ctx, "public", storage.AccessPrivate); err != nil {
		t.Fatalf("second create: %v", err)
	}
	access, err := b.ContainerAccess(ctx, "public")
	if err != nil {
		t.Fatalf("access: %v", err)
	}
	if access != storage.AccessPublicRead {
		t.Errorf("access = %q", access)
	}

	if _, err := b.ContainerAccess(ctx, "missing"); err == nil {
		t.Error("expected error for unknown container")
	}
}

func TestObjectLifecycle(t *testing.T) {
	b := newBackend(t, "")
	ctx := context.Background()
	_ = b.CreateContainerIfNotExists(ctx, "assets", storage.AccessPrivate)

	if err := b.PutObject(ctx, "assets", "docs/a.txt", strings.NewReader("v1")); err != nil {
		t.Fatalf("put: %v", err)
	}
	props := storage.Properties{ContentType: "text/plain", CacheControl: "private"}
	if err := b.SetProperties(ctx, "assets", "docs/a.txt", props); err != nil {
		t.Fatalf("set properties: %v", err)
	}
	if got, _ := b.Properties("assets", "docs/a.txt"); got != props {
		t.Errorf("properties = %+v", got)
	}

	if err := b.PutObject(ctx, "assets", "docs/a.txt", strings.NewReader("v2")); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if got, _ := b.Properties("assets", "docs/a.txt"); got != (storage.Properties{}) {
		t.Errorf("replace kept properties %+v", got)
	}

	rc, err := b.GetObject(ctx, "assets", "docs/a.txt")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(data) != "v2" {
		t.Errorf("content = %q", data)
	}

	if err := b.DeleteObject(ctx, "assets", "docs/a.txt"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := b.DeleteObject(ctx, "assets", "docs/a.txt"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if _, err := b.GetObject(ctx, "assets", "docs/a.txt"); !errors.Is(err, storage.ErrObjectNotFound) {
		t.Errorf("expected ErrObjectNotFound, got %v", err)
	}
	if err := b.SetProperties(ctx, "assets", "docs/a.txt", props); !errors.Is(err, storage.ErrObjectNotFound) {
		t.Errorf("expected ErrObjectNotFound, got %v", err)
	}
}

func TestRejectsEscapingKeys(t *testing.T) {
	b := newBackend(t, "")
	ctx := context.Background()
	_ = b.CreateContainerIfNotExists(ctx, "assets", storage.AccessPrivate)

	for _, key := range []string{"../escape.txt", "a/../../b", "/abs"} {
		if err := b.PutObject(ctx, "assets", key, strings.NewReader("x")); err == nil {
			t.Errorf("PutObject(%q): expected error", key)
		}
	}
	if err := b.CreateContainerIfNotExists(ctx, "../up", storage.AccessPrivate); err == nil {
		t.Error("expected error for container with a path separator")
	}
}

func TestObjectURL(t *testing.T) {
	b := newBackend(t, "https://files.example.com/root")
	u, _ := b.ObjectURL("assets", "a b.txt")
	if u != "https://files.example.com/root/assets/a%20b.txt" {
		t.Errorf("url = %q", u)
	}

	fb := newBackend(t, "")
	raw, _ := fb.ObjectURL("assets", "a.txt")
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme != "file" {
		t.Fatalf("expected file url, got %q", raw)
	}
	if !strings.HasSuffix(parsed.Path, "/assets/objects/a.txt") {
		t.Errorf("path = %q", parsed.Path)
	}
}

func TestSignRead(t *testing.T) {
	b := newBackend(t, "")
	q, err := b.SignRead(context.Background(), "assets", "a.txt", storage.ReadPolicy{
		Permission: storage.PermissionRead,
		Expiry:     time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("SignRead: %v", err)
	}
	values, _ := url.ParseQuery(q)
	if values.Get(signer.QueryParam) == "" {
		t.Errorf("expected %s parameter in %q", signer.QueryParam, q)
	}
}

func TestClientOverLocal(t *testing.T) {
	base := t.TempDir()
	client, err := storage.New(storage.Options{
		ConnectionString: "Provider=local;BasePath=" + base,
		DefaultContainer: "assets",
		Logger:           logger.NewNop(),
	})
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	ctx := context.Background()

	if _, err := client.UploadBytes(ctx, []byte("hello"), "greeting.txt", storage.UploadOptions{ContentType: "text/plain"}); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if _, err := os.Stat(filepath.Join(base, "assets", "objects", "greeting.txt")); err != nil {
		t.Errorf("object file missing: %v", err)
	}

	r, err := client.StreamResource(ctx, "greeting.txt", "")
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	data, _ := io.ReadAll(r)
	if string(data) != "hello" {
		t.Errorf("content = %q", data)
	}
}
