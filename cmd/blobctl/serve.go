package main

import (
	"context"
	"net"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kbukum/blobkit/component"
	"github.com/kbukum/blobkit/logger"
	"github.com/kbukum/blobkit/server"
	"github.com/kbukum/blobkit/storage"
	"github.com/kbukum/blobkit/storage/httpapi"
	"github.com/kbukum/blobkit/storage/memory"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the blob HTTP API; with the memory provider also serve the emulator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app, err := newApp(ctx, flags)
			if err != nil {
				return err
			}

			api := server.New(app.Cfg.HTTP, app.Logger)
			api.ApplyDefaults(app.Name, app.Components.HealthAll)
			if err := app.RegisterComponent(&routedServer{
				Component: server.NewComponent(api),
				mount: func() error {
					httpapi.New(app.client(), httpapi.Options{
						ServiceName: app.Name,
						PresignTTL:  app.Cfg.Storage.PresignTTL,
						Logger:      app.Logger,
						Metrics:     app.metrics,
					}).RegisterRoutes(api.GinEngine())
					return nil
				},
			}); err != nil {
				return err
			}

			if err := registerEmulator(app); err != nil {
				return err
			}
			return app.Run(ctx)
		},
	}
}

// registerEmulator serves the memory backend's objects on the connection
// string's address, so the URLs it issues resolve.
func registerEmulator(app *blobApp) error {
	ep, err := storage.ParseConnectionString(app.Cfg.Storage.ConnectionString)
	if err != nil || ep.Provider != storage.ProviderMemory {
		return err
	}

	cfg, err := emulatorConfig(ep)
	if err != nil {
		return err
	}
	srv := server.New(cfg, app.Logger)
	srv.ApplyMiddleware()

	return app.RegisterComponent(&routedServer{
		Component: server.NewComponent(srv),
		mount: func() error {
			backend, ok := app.client().Backend().(*memory.Backend)
			if !ok {
				app.Logger.Warn("emulator disabled: storage backend is not the memory emulator",
					logger.Fields("backend", app.client().Backend().Name()))
				return nil
			}
			backend.RegisterRoutes(srv.GinEngine())
			return nil
		},
	})
}

func emulatorConfig(ep storage.Endpoint) (server.Config, error) {
	u, err := url.Parse(ep.Address)
	if err != nil {
		return server.Config{}, err
	}
	port := u.Port()
	if port == "" {
		port = "80"
		if u.Scheme == "https" {
			port = "443"
		}
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		return server.Config{}, err
	}

	cfg := server.Config{Name: "emulator", Host: u.Hostname(), Port: p}
	if ip := net.ParseIP(cfg.Host); ip == nil && cfg.Host != "localhost" {
		cfg.Host = ""
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// routedServer mounts routes that need started dependencies just before
// the server begins listening.
type routedServer struct {
	*server.Component
	mount func() error
}

var _ component.Describable = (*routedServer)(nil)

func (s *routedServer) Start(ctx context.Context) error {
	if err := s.mount(); err != nil {
		return err
	}
	return s.Component.Start(ctx)
}
