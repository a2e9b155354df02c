package metrics

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/tuanio/noisy-student-training-aped/logger"
)

const meterName = "github.com/tuanio/noisy-student-training-aped/metrics"

// OTelSink forwards scalar emissions to an OpenTelemetry meter as float
// gauges, one instrument per metric name. Instruments are created on first
// use and cached.
type OTelSink struct {
	meter  metric.Meter
	log    *logger.Logger
	mu     sync.Mutex
	gauges map[string]metric.Float64Gauge
}

// NewOTelSink creates a sink on the given meter; a nil meter falls back to
// the global provider.
func NewOTelSink(meter metric.Meter) *OTelSink {
	if meter == nil {
		meter = otel.Meter(meterName)
	}
	return &OTelSink{
		meter:  meter,
		log:    logger.WithComponent("metrics"),
		gauges: make(map[string]metric.Float64Gauge),
	}
}

// Emit records one scalar on the gauge named name.
func (s *OTelSink) Emit(name string, value float64) {
	gauge, err := s.gauge(name)
	if err != nil {
		s.log.Warn("dropping metric emission", logger.ErrorFields(name, err))
		return
	}
	gauge.Record(context.Background(), value)
}

func (s *OTelSink) gauge(name string) (metric.Float64Gauge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.gauges[name]; ok {
		return g, nil
	}
	g, err := s.meter.Float64Gauge(name)
	if err != nil {
		return nil, err
	}
	s.gauges[name] = g
	return g, nil
}
