package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/blobkit/component"
	"github.com/kbukum/blobkit/logger"
	"github.com/kbukum/blobkit/observability"
	"github.com/kbukum/blobkit/provider"
)

// Component wraps a Client and implements component.Component for lifecycle management.
type Component struct {
	cfg     Config
	log     *logger.Logger
	metrics *observability.Metrics

	mu     sync.RWMutex
	client *Client
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
	_ provider.Provider     = (*Component)(nil)
)

// NewComponent creates a storage component for use with the component registry.
func NewComponent(cfg Config, log *logger.Logger, metrics *observability.Metrics) *Component {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.NewNop()
	}
	return &Component{
		cfg:     cfg,
		log:     log.WithComponent("storage"),
		metrics: metrics,
	}
}

// Client returns the storage facade, or nil if the component is not started.
func (c *Component) Client() *Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client
}

// Config returns the component configuration with defaults applied.
func (c *Component) Config() Config { return c.cfg }

// Name returns the component name.
func (c *Component) Name() string { return "storage" }

// Start opens the backend and builds the Client.
func (c *Component) Start(_ context.Context) error {
	if !c.cfg.Enabled {
		c.log.Info("storage component is disabled")
		return nil
	}
	if err := c.cfg.Validate(); err != nil {
		return fmt.Errorf("storage start: %w", err)
	}

	opts, err := c.cfg.Options(c.log, c.metrics)
	if err != nil {
		return fmt.Errorf("storage start: %w", err)
	}
	client, err := New(opts)
	if err != nil {
		return fmt.Errorf("storage start: %w", err)
	}

	c.mu.Lock()
	c.client = client
	c.mu.Unlock()
	return nil
}

// Stop releases the backend.
func (c *Component) Stop(_ context.Context) error {
	c.mu.Lock()
	client := c.client
	c.client = nil
	c.mu.Unlock()

	if client == nil {
		return nil
	}
	return client.Close()
}

// IsAvailable reports whether the backend answers (implements provider.Provider).
func (c *Component) IsAvailable(ctx context.Context) bool {
	client := c.Client()
	return client != nil && client.Backend().IsAvailable(ctx)
}

// Health returns the current health status of the storage component.
func (c *Component) Health(ctx context.Context) component.Health {
	if !c.cfg.Enabled {
		return component.Health{Name: c.Name(), Status: component.StatusHealthy, Message: "disabled"}
	}

	client := c.Client()
	if client == nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "storage not initialized"}
	}
	if !client.Backend().IsAvailable(ctx) {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusUnhealthy,
			Message: fmt.Sprintf("%s backend unreachable", client.Backend().Name()),
		}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

// Describe returns infrastructure summary info for startup logging.
func (c *Component) Describe() component.Description {
	ep, err := ParseConnectionString(c.cfg.ConnectionString)
	details := "invalid connection string"
	if err == nil {
		details = fmt.Sprintf("provider=%s", ep.Provider)
		if ep.Address != "" {
			details += " endpoint=" + ep.Address
		}
	}
	if c.cfg.DefaultContainer != "" {
		details += fmt.Sprintf(" container=%s access=%s", c.cfg.DefaultContainer, c.cfg.DefaultAccess)
	}
	return component.Description{
		Name:    "Storage",
		Type:    "storage",
		Details: details,
	}
}
