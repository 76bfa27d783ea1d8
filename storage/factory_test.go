package storage

import (
	"slices"
	"strings"
	"testing"

	"github.com/kbukum/blobkit/logger"
)

func TestOpenUsesRegisteredFactory(t *testing.T) {
	fake := newFakeBackend()
	var got Endpoint
	RegisterFactory("fake-open", func(ep Endpoint, _ *logger.Logger) (Backend, error) {
		got = ep
		return fake, nil
	})

	ep := Endpoint{Provider: "fake-open", Address: "http://example.test"}
	backend, err := Open(ep, logger.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if backend != fake {
		t.Error("Open did not return the factory's backend")
	}
	if got.Address != ep.Address {
		t.Errorf("factory got address %q, want %q", got.Address, ep.Address)
	}
	if !slices.Contains(Providers(), "fake-open") {
		t.Errorf("Providers() = %v, missing fake-open", Providers())
	}
}

func TestOpenUnknownProvider(t *testing.T) {
	_, err := Open(Endpoint{Provider: "nope"}, logger.NewNop())
	if err == nil || !strings.Contains(err.Error(), `"nope"`) {
		t.Fatalf("Open(nope) err = %v", err)
	}
}
