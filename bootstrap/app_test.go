package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/tuanio/noisy-student-training-aped/testutil"
	"github.com/tuanio/noisy-student-training-aped/trainer"
)

func writeConfigFile(t *testing.T, experimentPath string) string {
	t.Helper()
	content := fmt.Sprintf(`max_epochs: 2
experiment_path: %s
optimizer:
  name: sgd
  lr: 0.1
scheduler:
  name: constant
  interval: epoch
`, experimentPath)
	path := filepath.Join(t.TempDir(), "train.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestApp_New_AssemblesLoopFromConfigFile(t *testing.T) {
	exp := filepath.Join(t.TempDir(), "exp")
	strategy := trainer.NewTeacherStrategy(testutil.NewVocabProcessor("hello"))

	app, err := New(context.Background(), writeConfigFile(t, exp), strategy, WithSink(&testutil.CaptureSink{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if app.Cfg.MaxEpochs != 2 {
		t.Errorf("MaxEpochs = %d, want 2", app.Cfg.MaxEpochs)
	}
	if app.Loop == nil {
		t.Fatal("Loop not constructed")
	}
	if _, err := os.Stat(exp); err != nil {
		t.Errorf("experiment directory not created: %v", err)
	}
}

func TestApp_Resume_ColdStartOnEmptyExperiment(t *testing.T) {
	exp := filepath.Join(t.TempDir(), "exp")
	strategy := trainer.NewTeacherStrategy(testutil.NewVocabProcessor("hello"))
	app, err := New(context.Background(), writeConfigFile(t, exp), strategy)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := app.Resume(); err != nil {
		t.Fatalf("Resume on empty experiment: %v", err)
	}
}

func TestApp_Resume_RestoresLatestVersion(t *testing.T) {
	exp := filepath.Join(t.TempDir(), "exp")
	strategy := trainer.NewTeacherStrategy(testutil.NewVocabProcessor("hello"))
	app, err := New(context.Background(), writeConfigFile(t, exp), strategy)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	loader := testutil.NewSliceLoader(testutil.MakeBatch([][]int32{{1}}))
	if err := app.Loop.Train(context.Background(), testutil.NewFakeModel("M"), loader, loader); err != nil {
		t.Fatalf("Train: %v", err)
	}

	fresh, err := New(context.Background(), writeConfigFile(t, exp), strategy)
	if err != nil {
		t.Fatalf("New fresh: %v", err)
	}
	if err := fresh.Resume(); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if fresh.Loop.Config().MaxEpochs != 2 {
		t.Errorf("restored MaxEpochs = %d, want 2", fresh.Loop.Config().MaxEpochs)
	}
}

func TestApp_New_TrackingEnabledInitializesMeterAndTracer(t *testing.T) {
	exp := filepath.Join(t.TempDir(), "exp")
	content := fmt.Sprintf(`max_epochs: 1
experiment_path: %s
optimizer:
  name: sgd
  lr: 0.1
scheduler:
  name: constant
  interval: epoch
tracking:
  enabled: true
  settings:
    run_name: wiring-check
`, exp)
	path := filepath.Join(t.TempDir(), "train.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	strategy := trainer.NewTeacherStrategy(testutil.NewVocabProcessor("hello"))
	app, err := New(context.Background(), path, strategy)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if app.meter == nil {
		t.Error("meter provider not initialized")
	}
	if app.tracer == nil {
		t.Error("tracer provider not initialized")
	}
}

func TestApp_Shutdown_NoMeterIsNoop(t *testing.T) {
	exp := filepath.Join(t.TempDir(), "exp")
	app, err := New(context.Background(), writeConfigFile(t, exp), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := app.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}
