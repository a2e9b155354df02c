package trainer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/tuanio/noisy-student-training-aped/config"
	"github.com/tuanio/noisy-student-training-aped/testutil"
)

func TestTeacherStrategy_TrainEpoch_CheckpointsEveryBatch(t *testing.T) {
	cfg := testConfig(t, 2)
	cfg.Tracking.Enabled = true
	sink := &testutil.CaptureSink{}
	processor := testutil.NewVocabProcessor("hello")
	loop, err := New(cfg, NewTeacherStrategy(processor), sink)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	model := testutil.NewFakeModel("Conformer")
	loader := testutil.NewSliceLoader(
		testutil.MakeBatch([][]int32{{1}}),
		testutil.MakeBatch([][]int32{{1}}),
	)
	if err := loop.Train(context.Background(), model, loader, loader); err != nil {
		t.Fatalf("Train: %v", err)
	}

	// 2 epochs x 2 batches: one version per training batch.
	n, err := loop.Store().NextVersion()
	if err != nil {
		t.Fatalf("NextVersion: %v", err)
	}
	if n != 4 {
		t.Errorf("checkpoint versions = %d, want 4", n)
	}

	// The step identifier is cumulative across epochs.
	last := filepath.Join(cfg.ExperimentPath, "version_3", "TeacherTrainer.epoch=2.step=4.pt")
	if _, err := os.Stat(last); err != nil {
		t.Errorf("missing final checkpoint blob: %v", err)
	}

	if model.ZeroGradCalls != 4 {
		t.Errorf("ZeroGrad called %d times, want 4", model.ZeroGradCalls)
	}
	if model.BackwardCalls != 4 {
		t.Errorf("Backward called %d times, want 4", model.BackwardCalls)
	}
	trainForwards := 0
	for _, call := range model.ForwardCalls {
		if !call.Predict {
			trainForwards++
		}
	}
	if trainForwards != 4 {
		t.Errorf("training-mode forwards = %d, want 4", trainForwards)
	}

	if got := sink.Named("train_loss"); len(got) != 4 {
		t.Errorf("train_loss emitted %d times, want 4", len(got))
	}
	// The LR metric carries the schedule's name.
	if got := sink.Named("lr-constant"); len(got) != 4 {
		t.Errorf("lr-constant emitted %d times, want 4", len(got))
	}
}

func TestTeacherStrategy_TrainEpoch_StepGranularityAdvancesPerBatch(t *testing.T) {
	cfg := testConfig(t, 1)
	cfg.Scheduler.Interval = config.IntervalStep
	loop, err := New(cfg, NewTeacherStrategy(testutil.NewVocabProcessor("hello")), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	loader := testutil.NewSliceLoader(
		testutil.MakeBatch([][]int32{{1}}),
		testutil.MakeBatch([][]int32{{1}}),
		testutil.MakeBatch([][]int32{{1}}),
	)
	opt, sched, err := loop.BuildOptimizerAndScheduler(loader)
	if err != nil {
		t.Fatalf("BuildOptimizerAndScheduler: %v", err)
	}
	run := &Run{
		Model:     testutil.NewFakeModel("M"),
		Optimizer: opt,
		Scheduler: sched,
		Config:    loop.Config(),
		Store:     loop.Store(),
		Reporter:  loop.reporter,
		Log:       loop.log,
	}
	if err := loop.strategy.TrainEpoch(context.Background(), run, 1, loader); err != nil {
		t.Fatalf("TrainEpoch: %v", err)
	}
	if n := schedulerCount(t, sched); n != 3 {
		t.Errorf("scheduler stepped %d times over 3 batches, want 3", n)
	}
}

func TestTeacherStrategy_TestEpoch_ReportsGatedMetrics(t *testing.T) {
	cfg := testConfig(t, 1)
	cfg.Tracking.Enabled = true
	sink := &testutil.CaptureSink{}
	processor := testutil.NewVocabProcessor("hello", "world")
	loop, err := New(cfg, NewTeacherStrategy(processor), sink)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	model := testutil.NewFakeModel("M")
	model.RecognizeFunc = func(size int) []string {
		out := make([]string, size)
		for i := range out {
			out[i] = "hello world"
		}
		return out
	}
	loader := testutil.NewSliceLoader(
		testutil.MakeBatch([][]int32{processor.TextToIDs([]string{"hello", "world"})}),
	)

	if err := loop.Test(context.Background(), model, loader); err != nil {
		t.Fatalf("Test: %v", err)
	}
	wers := sink.Named("test_wer")
	if len(wers) != 1 {
		t.Fatalf("test_wer emitted %d times, want 1", len(wers))
	}
	if wers[0] != 0 {
		t.Errorf("test_wer = %v for an exact match, want 0", wers[0])
	}
	if got := sink.Named("test_loss"); len(got) != 1 {
		t.Errorf("test_loss emitted %d times, want 1", len(got))
	}
}

func TestTeacherStrategy_TestEpoch_SkipsEmptyBatches(t *testing.T) {
	cfg := testConfig(t, 1)
	cfg.Tracking.Enabled = true
	sink := &testutil.CaptureSink{}
	processor := testutil.NewVocabProcessor("hello")
	loop, err := New(cfg, NewTeacherStrategy(processor), sink)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	model := testutil.NewFakeModel("M")
	model.RecognizeFunc = func(size int) []string {
		out := make([]string, size)
		for i := range out {
			out[i] = "hello"
		}
		return out
	}
	loader := testutil.NewSliceLoader(
		testutil.MakeBatch([][]int32{{1}}),
		testutil.MakeBatch(nil),
	)

	if err := loop.Test(context.Background(), model, loader); err != nil {
		t.Fatalf("Test: %v", err)
	}
	wers := sink.Named("test_wer")
	if len(wers) != 1 {
		t.Fatalf("test_wer emitted %d times, want 1", len(wers))
	}
	if wers[0] != 0 {
		t.Errorf("test_wer = %v for an exact match, want 0", wers[0])
	}
}

func TestTeacherStrategy_TestEpoch_BatchRateWeightsByReferenceLength(t *testing.T) {
	cfg := testConfig(t, 1)
	cfg.Tracking.Enabled = true
	sink := &testutil.CaptureSink{}
	processor := testutil.NewVocabProcessor("hello", "world")
	loop, err := New(cfg, NewTeacherStrategy(processor), sink)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	model := testutil.NewFakeModel("M")
	model.RecognizeFunc = func(size int) []string {
		return []string{"oops", "world world world world"}
	}
	// References: "hello" (1 word) and "world world world world" (4 words).
	loader := testutil.NewSliceLoader(testutil.MakeBatch([][]int32{
		{1},
		{2, 2, 2, 2},
	}))

	if err := loop.Test(context.Background(), model, loader); err != nil {
		t.Fatalf("Test: %v", err)
	}
	wers := sink.Named("test_wer")
	if len(wers) != 1 {
		t.Fatalf("test_wer emitted %d times, want 1", len(wers))
	}
	// 1 edit over 5 reference words, not the 0.5 a per-example mean gives.
	if wers[0] != 0.2 {
		t.Errorf("test_wer = %v, want 0.2", wers[0])
	}
}

func TestTeacherStrategy_TestEpoch_DisabledTrackingEmitsNothing(t *testing.T) {
	cfg := testConfig(t, 1)
	sink := &testutil.CaptureSink{}
	processor := testutil.NewVocabProcessor("hello")
	loop, err := New(cfg, NewTeacherStrategy(processor), sink)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	loader := testutil.NewSliceLoader(testutil.MakeBatch([][]int32{processor.TextToIDs([]string{"hello"})}))

	if err := loop.Test(context.Background(), testutil.NewFakeModel("M"), loader); err != nil {
		t.Fatalf("Test: %v", err)
	}
	if len(sink.Emissions) != 0 {
		t.Errorf("disabled tracking still emitted %d metrics", len(sink.Emissions))
	}
}
