package storage

import (
	"fmt"
	"sort"
	"sync"

	"github.com/kbukum/blobkit/logger"
)

// BackendFactory creates a Backend for an endpoint.
type BackendFactory func(ep Endpoint, log *logger.Logger) (Backend, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]BackendFactory)
)

// RegisterFactory registers a backend factory for the given provider name.
// Backend packages call this from init; import them for side effects, e.g.
// _ "github.com/kbukum/blobkit/storage/s3".
func RegisterFactory(name string, f BackendFactory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = f
}

// Providers returns the sorted names of all registered backends.
func Providers() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open creates the backend selected by ep.Provider.
func Open(ep Endpoint, log *logger.Logger) (Backend, error) {
	factoriesMu.RLock()
	f, ok := factories[ep.Provider]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: unsupported provider %q (not registered)", ep.Provider)
	}

	log.Info("initializing storage backend", logger.Fields("provider", ep.Provider, "endpoint", ep.Address))
	return f(ep, log)
}
