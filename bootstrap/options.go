package bootstrap

import (
	"github.com/tuanio/noisy-student-training-aped/config"
	"github.com/tuanio/noisy-student-training-aped/metrics"
)

type options struct {
	sink       metrics.Sink
	loaderOpts []config.LoaderOption
}

// Option customizes app assembly.
type Option func(*options)

// WithSink supplies the metric sink directly, bypassing OpenTelemetry
// setup. Useful in tests and for custom tracking backends.
func WithSink(sink metrics.Sink) Option {
	return func(o *options) { o.sink = sink }
}

// WithLoaderOptions forwards options to the configuration loader.
func WithLoaderOptions(opts ...config.LoaderOption) Option {
	return func(o *options) { o.loaderOpts = append(o.loaderOpts, opts...) }
}

func resolveOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
