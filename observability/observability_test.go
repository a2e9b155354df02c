package observability

import (
	"context"
	"testing"
	"time"
)

func TestDefaultMeterConfig_Defaults(t *testing.T) {
	cfg := DefaultMeterConfig("teacher-run")
	if cfg.RunName != "teacher-run" {
		t.Errorf("unexpected run name: %s", cfg.RunName)
	}
	if cfg.Endpoint != "localhost:4318" {
		t.Errorf("unexpected endpoint: %s", cfg.Endpoint)
	}
	if !cfg.Insecure {
		t.Error("development default should be insecure")
	}
	if cfg.Interval != 15*time.Second {
		t.Errorf("unexpected interval: %v", cfg.Interval)
	}
}

func TestDefaultTracerConfig_Defaults(t *testing.T) {
	cfg := DefaultTracerConfig("student-run")
	if cfg.SampleRate != 1.0 {
		t.Errorf("expected full sampling by default, got %v", cfg.SampleRate)
	}
	if cfg.Environment != "development" {
		t.Errorf("unexpected environment: %s", cfg.Environment)
	}
}

func TestStartSpan_NoProviderStillWorks(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "epoch")
	if ctx == nil {
		t.Fatal("expected non-nil context")
	}
	span.End()
}
