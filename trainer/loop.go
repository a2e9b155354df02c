package trainer

import (
	"context"
	"path/filepath"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tuanio/noisy-student-training-aped/asr"
	"github.com/tuanio/noisy-student-training-aped/checkpoint"
	"github.com/tuanio/noisy-student-training-aped/config"
	"github.com/tuanio/noisy-student-training-aped/logger"
	"github.com/tuanio/noisy-student-training-aped/metrics"
	"github.com/tuanio/noisy-student-training-aped/observability"
	"github.com/tuanio/noisy-student-training-aped/optim"
)

// RestoreKeyTrainer is the restore-input key naming a trainer checkpoint
// blob. Its absence means cold start.
const RestoreKeyTrainer = "trainer"

// Loop is the epoch controller. It owns optimizer and scheduler lifecycle,
// checkpoint restoration, and the per-epoch train/validate alternation,
// delegating per-batch behavior to its Strategy. A nil strategy makes the
// train and test passes silently inert while the loop itself still runs.
type Loop struct {
	cfg      *config.TrainingConfig
	strategy Strategy
	store    *checkpoint.Store
	sink     metrics.Sink
	reporter *metrics.Reporter
	log      *logger.Logger
	runID    string

	// restored holds the trainer blob loaded by RestoreFromCheckpoint;
	// nil means cold start.
	restored *checkpoint.TrainerState
}

// New creates an epoch controller. The configuration is validated and the
// experiment directory created up front; the sink may be nil to disable
// metric emission regardless of the tracking flag.
func New(cfg *config.TrainingConfig, strategy Strategy, sink metrics.Sink) (*Loop, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	store, err := checkpoint.NewStore(cfg.ExperimentPath)
	if err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	return &Loop{
		cfg:      cfg,
		strategy: strategy,
		store:    store,
		sink:     sink,
		reporter: metrics.NewReporter(cfg.Tracking.Enabled, sink),
		log: logger.WithComponent("trainer").
			WithRun(runID).
			WithExperiment(cfg.ExperimentPath),
		runID: runID,
	}, nil
}

// Config returns the active configuration, which may have been replaced
// wholesale by a restored checkpoint.
func (l *Loop) Config() *config.TrainingConfig { return l.cfg }

// Store exposes the checkpoint store, for locating resumable versions.
func (l *Loop) Store() *checkpoint.Store { return l.store }

// RestoreFromCheckpoint loads the trainer blob named under the "trainer"
// key, if present. The stored hyperparameters replace the controller's
// configuration wholesale, rejecting unknown fields; the metric gate is
// rebuilt from the restored tracking flag, and the optimizer and
// scheduler blobs are held until BuildOptimizerAndScheduler installs them.
func (l *Loop) RestoreFromCheckpoint(paths map[string]string) error {
	path, ok := paths[RestoreKeyTrainer]
	if !ok {
		return nil
	}
	state, err := l.store.LoadTrainer(path)
	if err != nil {
		return err
	}
	cfg, err := config.FromJSON(state.Hyperparams)
	if err != nil {
		return err
	}
	if cfg.ExperimentPath != l.cfg.ExperimentPath {
		store, err := checkpoint.NewStore(cfg.ExperimentPath)
		if err != nil {
			return err
		}
		l.store = store
	}
	l.cfg = cfg
	// The restored tracking flag governs emission from here on.
	l.reporter = metrics.NewReporter(cfg.Tracking.Enabled, l.sink)
	l.restored = &state
	l.log.Info("restored trainer checkpoint", logger.Fields(
		"path", path,
		logger.FieldEpoch, state.Epoch,
		logger.FieldStep, state.Step,
	))
	return nil
}

// BuildOptimizerAndScheduler constructs the optimizer and scheduler named
// in the configuration. The one-cycle policy needs its full step budget
// before construction, so its total step count is fixed here from the
// loader length and the epoch budget. If a checkpoint was restored, both
// instances have their state overwritten from the stored blobs so training
// resumes numerically rather than from initialization.
func (l *Loop) BuildOptimizerAndScheduler(loader asr.DataLoader) (optim.Optimizer, optim.Scheduler, error) {
	opt, err := optim.NewOptimizer(l.cfg.Optimizer)
	if err != nil {
		return nil, nil, err
	}
	schedCfg := l.cfg.Scheduler
	if schedCfg.Name == optim.SchedulerOneCycle {
		schedCfg.TotalSteps = loader.Len() * l.cfg.MaxEpochs
	}
	sched, err := optim.NewScheduler(schedCfg, opt)
	if err != nil {
		return nil, nil, err
	}
	if l.restored != nil {
		if err := opt.LoadStateDict(l.restored.OptimizerState); err != nil {
			return nil, nil, err
		}
		if err := sched.LoadStateDict(l.restored.SchedulerState); err != nil {
			return nil, nil, err
		}
	}
	return opt, sched, nil
}

// Train runs the full epoch loop: for each epoch one training pass then
// one validation pass, with the scheduler advanced here once per epoch
// only under epoch granularity. Step granularity advances inside the
// per-batch cycle instead; the two sites are mutually exclusive.
func (l *Loop) Train(ctx context.Context, model asr.Model, trainLoader, validLoader asr.DataLoader) error {
	opt, sched, err := l.BuildOptimizerAndScheduler(trainLoader)
	if err != nil {
		return err
	}
	run := &Run{
		Model:     model,
		Optimizer: opt,
		Scheduler: sched,
		Config:    l.cfg,
		Store:     l.store,
		Reporter:  l.reporter,
		Log:       l.log,
		RunID:     l.runID,
	}

	for epoch := 1; epoch <= l.cfg.MaxEpochs; epoch++ {
		epochCtx, span := observability.StartSpan(ctx, "train.epoch",
			trace.WithAttributes(attribute.Int("epoch", epoch)))

		if err := l.runEpoch(epochCtx, run, epoch, trainLoader, validLoader); err != nil {
			span.RecordError(err)
			span.End()
			return err
		}
		if l.cfg.Scheduler.Interval == config.IntervalEpoch {
			sched.Step()
		}
		span.End()
	}
	l.log.Info("training run complete", logger.Fields(logger.FieldEpoch, l.cfg.MaxEpochs))
	return nil
}

func (l *Loop) runEpoch(ctx context.Context, run *Run, epoch int, trainLoader, validLoader asr.DataLoader) error {
	if l.strategy == nil {
		return nil
	}
	if err := trainLoader.Reset(); err != nil {
		return err
	}
	if err := l.strategy.TrainEpoch(ctx, run, epoch, trainLoader); err != nil {
		return err
	}
	if err := validLoader.Reset(); err != nil {
		return err
	}
	return l.strategy.TestEpoch(ctx, run, epoch, validLoader, "valid", l.outcomePath("valid"))
}

// Test runs a single evaluation pass at epoch 0, writing to the
// test-labeled outcome file under the experiment directory.
func (l *Loop) Test(ctx context.Context, model asr.Model, loader asr.DataLoader) error {
	return l.evaluate(ctx, model, loader, "test", l.outcomePath("test"))
}

// Predict runs a single evaluation pass at epoch 0, writing to the
// caller-supplied outcome path.
func (l *Loop) Predict(ctx context.Context, model asr.Model, loader asr.DataLoader, outputPath string) error {
	return l.evaluate(ctx, model, loader, "predict", outputPath)
}

func (l *Loop) evaluate(ctx context.Context, model asr.Model, loader asr.DataLoader, task, outcomePath string) error {
	if l.strategy == nil {
		return nil
	}
	ctx, span := observability.StartSpan(ctx, "train."+task)
	defer span.End()

	run := &Run{
		Model:    model,
		Config:   l.cfg,
		Store:    l.store,
		Reporter: l.reporter,
		Log:      l.log,
		RunID:    l.runID,
	}
	if err := loader.Reset(); err != nil {
		return err
	}
	return l.strategy.TestEpoch(ctx, run, 0, loader, task, outcomePath)
}

func (l *Loop) outcomePath(task string) string {
	return filepath.Join(l.cfg.ExperimentPath, task+"_output.txt")
}
