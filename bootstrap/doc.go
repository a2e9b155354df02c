// Package bootstrap assembles a training run from a configuration file:
// config load with environment layering, logger initialization, optional
// OpenTelemetry wiring for the metric sink, epoch-controller construction,
// and resume-from-latest-checkpoint discovery.
package bootstrap
