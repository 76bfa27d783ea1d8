package main

import (
	"context"
	"fmt"

	"github.com/kbukum/blobkit/bootstrap"
	"github.com/kbukum/blobkit/observability"
	"github.com/kbukum/blobkit/storage"
	"github.com/kbukum/blobkit/version"
)

// blobApp is a bootstrap.App carrying the storage component.
type blobApp struct {
	*bootstrap.App[*Config]
	storage *storage.Component
	metrics *observability.Metrics
}

// newApp builds the application: telemetry when enabled, then the storage
// component.
func newApp(ctx context.Context, flags *rootFlags) (*blobApp, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	if cfg.Version == "" {
		cfg.Version = version.Get().Version
	}

	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Telemetry.Enabled {
		if err := initTelemetry(ctx, app); err != nil {
			return nil, err
		}
	}

	metrics, err := observability.NewMetrics(observability.DefaultMeter())
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	store := storage.NewComponent(cfg.Storage, app.Logger, metrics)
	if err := app.RegisterComponent(store); err != nil {
		return nil, err
	}
	return &blobApp{App: app, storage: store, metrics: metrics}, nil
}

func initTelemetry(ctx context.Context, app *bootstrap.App[*Config]) error {
	cfg := app.Cfg
	tp, err := observability.InitTracer(ctx, observability.TracerConfig{
		ServiceName:    cfg.Name,
		ServiceVersion: cfg.Version,
		Environment:    cfg.Environment,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	mp, err := observability.InitMeter(ctx, &observability.MeterConfig{
		ServiceName:    cfg.Name,
		ServiceVersion: cfg.Version,
		Environment:    cfg.Environment,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		Interval:       cfg.Telemetry.MetricInterval,
	})
	if err != nil {
		_ = tp.Shutdown(ctx)
		return fmt.Errorf("metrics: %w", err)
	}

	app.OnStop(tp.Shutdown, mp.Shutdown)
	return nil
}

// client returns the started storage client.
func (a *blobApp) client() *storage.Client {
	return a.storage.Client()
}
