package storage

import (
	"regexp"
	"strings"
	"testing"
	"time"
)

var uuidPattern = `[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`

func TestUUIDKeys(t *testing.T) {
	key := UUIDKeys{Prefix: "uploads/"}.NewKey(UploadOptions{})
	if !regexp.MustCompile(`^uploads/` + uuidPattern + `$`).MatchString(key) {
		t.Errorf("unexpected key %q", key)
	}

	a := UUIDKeys{}.NewKey(UploadOptions{})
	b := UUIDKeys{}.NewKey(UploadOptions{})
	if a == b {
		t.Error("expected unique keys")
	}
}

func TestUUIDKeys_Extension(t *testing.T) {
	key := UUIDKeys{}.NewKey(UploadOptions{ContentType: "image/png"})
	if !strings.HasSuffix(key, ".png") {
		t.Errorf("expected .png suffix, got %q", key)
	}
	key = UUIDKeys{}.NewKey(UploadOptions{ContentType: "text/plain; charset=utf-8"})
	if !strings.HasSuffix(key, ".txt") {
		t.Errorf("expected .txt suffix, got %q", key)
	}
	key = UUIDKeys{}.NewKey(UploadOptions{ContentType: "application/octet-stream"})
	if strings.Contains(key, ".") {
		t.Errorf("expected no extension for octet-stream, got %q", key)
	}
	key = UUIDKeys{}.NewKey(UploadOptions{ContentType: "application/x-unknown-thing"})
	if strings.Contains(key, ".") {
		t.Errorf("expected no extension, got %q", key)
	}
}

func TestUUIDKeys_Dated(t *testing.T) {
	fixed := time.Date(2024, 3, 7, 23, 0, 0, 0, time.UTC)
	key := UUIDKeys{Dated: true, now: func() time.Time { return fixed }}.NewKey(UploadOptions{})
	if !strings.HasPrefix(key, "2024/03/07/") {
		t.Errorf("unexpected key %q", key)
	}
}

func TestNewKeyNamer(t *testing.T) {
	for _, policy := range []string{"", KeyNamingNone} {
		k, err := NewKeyNamer(policy)
		if err != nil || k != nil {
			t.Errorf("NewKeyNamer(%q) = %v, %v", policy, k, err)
		}
	}
	if k, err := NewKeyNamer(KeyNamingUUID); err != nil || k == nil {
		t.Errorf("uuid: %v, %v", k, err)
	}
	k, err := NewKeyNamer(KeyNamingDated)
	if err != nil {
		t.Fatalf("dated: %v", err)
	}
	if u, ok := k.(UUIDKeys); !ok || !u.Dated {
		t.Errorf("expected dated UUIDKeys, got %#v", k)
	}
	if _, err := NewKeyNamer("sequential"); err == nil {
		t.Error("expected error for unknown policy")
	}
}
