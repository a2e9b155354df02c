package metrics

// Sink accepts named scalar emissions. The external tracking backend sits
// behind this interface.
type Sink interface {
	Emit(name string, value float64)
}

// NopSink discards every emission.
type NopSink struct{}

func (NopSink) Emit(string, float64) {}

// Reporter conditionally forwards scalar metrics to a sink. Every emission
// is gated on the configuration flag; there is no buffering.
type Reporter struct {
	enabled bool
	sink    Sink
}

// NewReporter creates a reporter. A nil sink disables emission regardless
// of the flag.
func NewReporter(enabled bool, sink Sink) *Reporter {
	if sink == nil {
		enabled = false
	}
	return &Reporter{enabled: enabled, sink: sink}
}

// Enabled reports whether emissions are forwarded.
func (r *Reporter) Enabled() bool { return r.enabled }

// Scalar emits one named value if reporting is enabled.
func (r *Reporter) Scalar(name string, value float64) {
	if !r.enabled {
		return
	}
	r.sink.Emit(name, value)
}
