// Package observability initializes the OpenTelemetry meter and tracer
// providers the harness exports through. The metric sink records training
// scalars (loss, learning rate, error rates); the tracer wraps each epoch's
// train and validation passes in spans so long runs can be inspected from
// an OTLP backend.
package observability
