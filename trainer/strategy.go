package trainer

import (
	"context"

	"github.com/tuanio/noisy-student-training-aped/asr"
	"github.com/tuanio/noisy-student-training-aped/checkpoint"
	"github.com/tuanio/noisy-student-training-aped/config"
	"github.com/tuanio/noisy-student-training-aped/errors"
	"github.com/tuanio/noisy-student-training-aped/logger"
	"github.com/tuanio/noisy-student-training-aped/metrics"
	"github.com/tuanio/noisy-student-training-aped/optim"
)

// Run bundles the objects one pass over a loader needs. The loop assembles
// it once per Train call; evaluation-only entry points leave Optimizer and
// Scheduler nil.
type Run struct {
	Model     asr.Model
	Optimizer optim.Optimizer
	Scheduler optim.Scheduler
	Config    *config.TrainingConfig
	Store     *checkpoint.Store
	Reporter  *metrics.Reporter
	Log       *logger.Logger
	RunID     string
}

// Strategy supplies the per-batch training and evaluation behavior the
// epoch controller delegates to.
type Strategy interface {
	// Name identifies the strategy in checkpoint filenames.
	Name() string

	// TrainEpoch runs one full training pass over the loader.
	TrainEpoch(ctx context.Context, run *Run, epoch int, loader asr.DataLoader) error

	// TestEpoch runs one full evaluation pass over the loader, appending
	// per-example records to the outcome file at outcomePath.
	TestEpoch(ctx context.Context, run *Run, epoch int, loader asr.DataLoader, task, outcomePath string) error
}

// runTrainBatch executes the shared per-batch training cycle: device move,
// zero grad, forward, backward, optimizer step, step-granularity scheduler
// advance, gated metric emission, checkpoint. Both strategies funnel
// through here once their targets are in place.
func runTrainBatch(ctx context.Context, run *Run, trainerName string, epoch, step int, batch asr.Batch) (float64, error) {
	batch, err := batch.To(run.Config.Device)
	if err != nil {
		return 0, err
	}

	run.Model.ZeroGrad()
	res, err := run.Model.Forward(ctx, batch.Features, batch.FeatureLens, batch.Targets, batch.TargetLens, false)
	if err != nil {
		return 0, err
	}
	if err := run.Model.Backward(); err != nil {
		return 0, err
	}
	if err := run.Optimizer.Step(run.Model.Parameters()); err != nil {
		return 0, err
	}
	if run.Config.Scheduler.Interval == config.IntervalStep {
		run.Scheduler.Step()
	}

	run.Reporter.Scalar("train_loss", res.Loss)
	run.Reporter.Scalar("lr-"+run.Scheduler.Name(), run.Optimizer.LR())

	if err := saveCheckpoint(run, trainerName, epoch, step); err != nil {
		return 0, err
	}
	return res.Loss, nil
}

// saveCheckpoint snapshots trainer and model state into a fresh version
// directory. A failure here leaves every prior version intact.
func saveCheckpoint(run *Run, trainerName string, epoch, step int) error {
	optState, err := run.Optimizer.StateDict()
	if err != nil {
		return err
	}
	schedState, err := run.Scheduler.StateDict()
	if err != nil {
		return err
	}
	hyper, err := run.Config.ToJSON()
	if err != nil {
		return errors.Internal("serializing hyperparameters for checkpoint").WithCause(err)
	}
	modelState, err := run.Model.StateDict()
	if err != nil {
		return err
	}

	_, err = run.Store.Save(trainerName, run.Model.Name(), epoch, step,
		checkpoint.TrainerState{
			RunID:          run.RunID,
			Epoch:          epoch,
			Step:           step,
			OptimizerState: optState,
			SchedulerState: schedState,
			Hyperparams:    hyper,
		},
		checkpoint.ModelState{
			State:       modelState,
			Hyperparams: run.Model.Hyperparameters(),
		})
	return err
}

// evalPass runs one evaluation pass: inference-mode forward for the loss,
// decode via the model's recognition procedure, decode integer references
// back to text, per-example rates into the outcome file and a corpus-level
// batch rate to the reporter. Shared by both strategies; only the model
// behind run differs.
func evalPass(ctx context.Context, run *Run, processor asr.TextProcessor, epoch int, loader asr.DataLoader, task, outcomePath string) error {
	run.Model.SetTraining(false)

	outcome := metrics.NewOutcomeWriter(outcomePath)
	if err := outcome.WriteBanner(task, epoch); err != nil {
		return err
	}

	var lossSum, werSum float64
	batches := 0
	for {
		batch, ok, err := loader.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if batch.Size() == 0 {
			continue
		}
		batch, err = batch.To(run.Config.Device)
		if err != nil {
			return err
		}

		res, err := run.Model.Forward(ctx, batch.Features, batch.FeatureLens, batch.Targets, batch.TargetLens, true)
		if err != nil {
			return err
		}
		hyps, err := run.Model.Recognize(ctx, batch.Features, batch.FeatureLens)
		if err != nil {
			return err
		}
		if len(hyps) != batch.Size() {
			return errors.RecognitionFailed(run.Model.Name()).
				WithDetail("hypotheses", len(hyps)).
				WithDetail("examples", batch.Size())
		}

		refs := make([]string, len(hyps))
		for i, hyp := range hyps {
			ref := decodeReference(processor, batch, i)
			refs[i] = ref
			rate := metrics.WordErrorRate(hyp, ref)
			if err := outcome.WriteRecord(rate, ref, hyp); err != nil {
				return err
			}
		}
		batchWER := metrics.BatchWordErrorRate(hyps, refs)

		run.Reporter.Scalar(task+"_loss", res.Loss)
		run.Reporter.Scalar(task+"_wer", batchWER)
		lossSum += res.Loss
		werSum += batchWER
		batches++
	}

	if batches > 0 {
		run.Log.Info("evaluation pass complete", logger.Fields(
			logger.FieldTask, task,
			logger.FieldEpoch, epoch,
			logger.FieldLoss, lossSum/float64(batches),
			logger.FieldWER, werSum/float64(batches),
		))
	}
	return nil
}

// decodeReference recovers the ground-truth transcript for one example
// from its integer-encoded target, dropping padding beyond the true length.
func decodeReference(processor asr.TextProcessor, batch asr.Batch, i int) string {
	if i >= len(batch.Targets) {
		return ""
	}
	ids := batch.Targets[i]
	if i < len(batch.TargetLens) && batch.TargetLens[i] < len(ids) {
		ids = ids[:batch.TargetLens[i]]
	}
	return processor.IDsToText(ids)
}
