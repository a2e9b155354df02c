// Package logger provides structured logging for the training harness
// using zerolog.
//
// It supports multiple output formats (JSON, console), log level
// configuration, and component-scoped loggers with structured fields.
// Training code tags log lines with run, epoch, and step identifiers so
// interleaved experiment output stays attributable.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "console"
//
// # Usage
//
//	log := logger.WithComponent("trainer")
//	log.Info("epoch finished", logger.EpochFields(3, 1200))
package logger
