// Package bootstrap runs a blobkit binary's lifecycle: typed configuration,
// component start-up in registration order, hooks, ready check and graceful
// shutdown.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.RegisterComponent(storage.NewComponent(cfg.Storage, app.Logger, nil))
//	err = app.Run(ctx)         // long-running: blocks until SIGINT/SIGTERM
//	err = app.RunTask(ctx, fn) // one-shot: stops components when fn returns
package bootstrap
