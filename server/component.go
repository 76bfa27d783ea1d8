package server

import (
	"context"

	"github.com/kbukum/blobkit/component"
)

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// Component wraps Server to implement component.Component.
type Component struct {
	server *Server
}

// NewComponent returns a component.Component backed by the given Server.
func NewComponent(s *Server) *Component {
	return &Component{server: s}
}

// Name returns the component name used for registration.
func (c *Component) Name() string { return c.server.config.Name }

// Start starts the underlying HTTP server.
func (c *Component) Start(ctx context.Context) error {
	return c.server.Start(ctx)
}

// Stop gracefully shuts down the underlying HTTP server.
func (c *Component) Stop(ctx context.Context) error {
	return c.server.Stop(ctx)
}

// Health reports healthy once the server is listening.
func (c *Component) Health(_ context.Context) component.Health {
	c.server.mu.Lock()
	listening := c.server.listener != nil
	c.server.mu.Unlock()

	if listening {
		return component.Health{Name: c.Name(), Status: component.StatusHealthy}
	}
	return component.Health{
		Name:    c.Name(),
		Status:  component.StatusUnhealthy,
		Message: "HTTP server not listening",
	}
}

// Describe returns summary info for the startup log.
func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    c.Name(),
		Type:    "server",
		Details: c.server.Addr(),
		Port:    c.server.config.Port,
	}
}
