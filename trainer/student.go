package trainer

import (
	"context"

	"github.com/tuanio/noisy-student-training-aped/asr"
	"github.com/tuanio/noisy-student-training-aped/errors"
)

// padID fills student targets out to the batch's maximum length. True
// lengths travel alongside, so padding never leaks into the loss.
const padID int32 = 0

// StudentStrategy trains a model against pseudo-labels produced by a
// frozen teacher, with a held-out subset of examples overridden by their
// ground-truth transcripts to anchor label quality.
type StudentStrategy struct {
	teacher   asr.Model
	processor asr.TextProcessor
}

// NewStudentStrategy creates the distillation strategy. The teacher model
// is only ever used through its recognition procedure; its parameters are
// never touched.
func NewStudentStrategy(teacher asr.Model, processor asr.TextProcessor) *StudentStrategy {
	return &StudentStrategy{teacher: teacher, processor: processor}
}

func (s *StudentStrategy) Name() string { return "StudentTrainer" }

// TrainEpoch runs one distillation pass: each batch's targets are built by
// mixing teacher pseudo-labels with ground-truth overrides, then the
// student goes through the same train cycle as the supervised path.
func (s *StudentStrategy) TrainEpoch(ctx context.Context, run *Run, epoch int, loader asr.DataLoader) error {
	run.Model.SetTraining(true)
	s.teacher.SetTraining(false)
	prog := newProgress(run.Log, "train", epoch, loader.Len())

	batchIdx := 0
	for {
		batch, ok, err := loader.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		batchIdx++
		step := (epoch-1)*loader.Len() + batchIdx

		batch, err = s.mixTargets(ctx, batch)
		if err != nil {
			return err
		}
		loss, err := runTrainBatch(ctx, run, s.Name(), epoch, step, batch)
		if err != nil {
			return err
		}
		prog.Observe(loss)
	}
	prog.Done()
	return nil
}

// TestEpoch evaluates the student model only; references come from the
// batch targets exactly as in the supervised path.
func (s *StudentStrategy) TestEpoch(ctx context.Context, run *Run, epoch int, loader asr.DataLoader, task, outcomePath string) error {
	return evalPass(ctx, run, s.processor, epoch, loader, task, outcomePath)
}

// mixTargets produces the batch's training targets: teacher pseudo-labels
// for every example, overridden by the ground-truth transcript wherever
// the side-channel flags one, then tokenized, integer-encoded, and padded
// to the batch maximum with true lengths recorded in parallel.
func (s *StudentStrategy) mixTargets(ctx context.Context, batch asr.Batch) (asr.Batch, error) {
	labels, err := s.teacher.Recognize(ctx, batch.Features, batch.FeatureLens)
	if err != nil {
		return batch, err
	}
	if len(labels) != batch.Size() {
		return batch, errors.RecognitionFailed(s.teacher.Name()).
			WithDetail("hypotheses", len(labels)).
			WithDetail("examples", batch.Size())
	}

	for idx, text := range batch.Transcripts {
		if idx < 0 || idx >= len(labels) {
			return batch, errors.ShapeMismatch("transcript override index outside batch").
				WithDetail("index", idx).
				WithDetail("batch_size", len(labels))
		}
		labels[idx] = text
	}

	targets := make([][]int32, len(labels))
	lens := make([]int, len(labels))
	maxLen := 0
	for i, label := range labels {
		ids := s.processor.TextToIDs(s.processor.Tokenize(label))
		targets[i] = ids
		lens[i] = len(ids)
		if len(ids) > maxLen {
			maxLen = len(ids)
		}
	}
	for i := range targets {
		for len(targets[i]) < maxLen {
			targets[i] = append(targets[i], padID)
		}
	}

	batch.Targets = targets
	batch.TargetLens = lens
	return batch, nil
}
