package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tuanio/noisy-student-training-aped/errors"
)

func validConfig() *TrainingConfig {
	cfg := &TrainingConfig{
		MaxEpochs:      3,
		ExperimentPath: "/tmp/exp",
		Optimizer:      OptimizerConfig{Name: "adam", LR: 0.001},
		Scheduler:      SchedulerConfig{Name: "onecycle", Interval: IntervalStep, MaxLR: 0.01},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestTrainingConfig_ApplyDefaults(t *testing.T) {
	cfg := &TrainingConfig{}
	cfg.ApplyDefaults()
	if cfg.Device != "cpu" {
		t.Errorf("expected cpu device default, got %s", cfg.Device)
	}
	if cfg.Scheduler.Interval != IntervalEpoch {
		t.Errorf("expected epoch interval default, got %s", cfg.Scheduler.Interval)
	}
	if cfg.Tracking.Settings == nil {
		t.Error("expected non-nil tracking settings")
	}
}

func TestTrainingConfig_Validate_Valid(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestTrainingConfig_Validate_ZeroEpochs(t *testing.T) {
	cfg := validConfig()
	cfg.MaxEpochs = 0
	err := cfg.Validate()
	if !errors.HasCode(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("expected INVALID_CONFIG, got %v", err)
	}
}

func TestTrainingConfig_Validate_BadDevice(t *testing.T) {
	cfg := validConfig()
	cfg.Device = "tpu"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown device")
	}
}

func TestTrainingConfig_Validate_BadInterval(t *testing.T) {
	cfg := validConfig()
	cfg.Scheduler.Interval = "batch"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for interval outside enum")
	}
}

func TestTrainingConfig_JSONRoundTrip(t *testing.T) {
	cfg := validConfig()
	data, err := cfg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON failed: %v", err)
	}
	restored, err := FromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON failed: %v", err)
	}
	if restored.MaxEpochs != cfg.MaxEpochs ||
		restored.Optimizer.Name != cfg.Optimizer.Name ||
		restored.Scheduler.Interval != cfg.Scheduler.Interval {
		t.Errorf("round trip mismatch: %+v", restored)
	}
}

func TestFromJSON_RejectsUnknownFields(t *testing.T) {
	data := []byte(`{"max_epochs":3,"experiment_path":"/tmp/exp","optimizer":{"name":"adam","lr":0.001},"scheduler":{"name":"constant","interval":"epoch"},"stray_attribute":true}`)
	_, err := FromJSON(data)
	if !errors.HasCode(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("expected INVALID_CONFIG for unknown field, got %v", err)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "train.yml")
	yaml := strings.Join([]string{
		"max_epochs: 5",
		"experiment_path: " + filepath.Join(dir, "exp"),
		"device: cpu",
		"optimizer:",
		"  name: sgd",
		"  lr: 0.01",
		"  momentum: 0.9",
		"scheduler:",
		"  name: step_decay",
		"  interval: epoch",
		"  gamma: 0.5",
		"  step_size: 2",
		"tracking:",
		"  enabled: false",
	}, "\n")
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.MaxEpochs != 5 {
		t.Errorf("expected 5 epochs, got %d", cfg.MaxEpochs)
	}
	if cfg.Optimizer.Name != "sgd" || cfg.Optimizer.Momentum != 0.9 {
		t.Errorf("unexpected optimizer config: %+v", cfg.Optimizer)
	}
	if cfg.Scheduler.Gamma != 0.5 {
		t.Errorf("unexpected scheduler config: %+v", cfg.Scheduler)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "train.yml")
	yaml := strings.Join([]string{
		"max_epochs: 5",
		"experiment_path: " + filepath.Join(dir, "exp"),
		"optimizer:",
		"  name: adam",
		"  lr: 0.001",
		"scheduler:",
		"  name: constant",
		"  interval: epoch",
	}, "\n")
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("TRAIN_MAX_EPOCHS", "9")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.MaxEpochs != 9 {
		t.Errorf("expected env override to 9 epochs, got %d", cfg.MaxEpochs)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yml")); err == nil {
		t.Error("expected error for missing config file")
	}
}
