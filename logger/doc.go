// Package logger provides structured logging for blobkit using zerolog.
//
// It supports JSON and console output, log level configuration, and
// component-scoped loggers with structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.NewDefault("blobctl").WithComponent("storage")
//	log.Info("container created", logger.Fields("container", "assets"))
package logger
