package trainer

import (
	"context"

	"github.com/tuanio/noisy-student-training-aped/asr"
)

// TeacherStrategy trains a model against ground-truth transcripts: the
// supervised path of the distillation pipeline.
type TeacherStrategy struct {
	processor asr.TextProcessor
}

// NewTeacherStrategy creates the supervised strategy. The text processor
// decodes integer references back to text during evaluation.
func NewTeacherStrategy(processor asr.TextProcessor) *TeacherStrategy {
	return &TeacherStrategy{processor: processor}
}

func (s *TeacherStrategy) Name() string { return "TeacherTrainer" }

// TrainEpoch runs one supervised pass: every batch goes through the
// zero-grad/forward/backward/step cycle and is checkpointed, with the step
// identifier cumulative across epochs so filenames never collide.
func (s *TeacherStrategy) TrainEpoch(ctx context.Context, run *Run, epoch int, loader asr.DataLoader) error {
	run.Model.SetTraining(true)
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

		loss, err := runTrainBatch(ctx, run, s.Name(), epoch, step, batch)
		if err != nil {
			return err
		}
		prog.Observe(loss)
	}
	prog.Done()
	return nil
}

// TestEpoch runs one evaluation pass against ground-truth references.
func (s *TeacherStrategy) TestEpoch(ctx context.Context, run *Run, epoch int, loader asr.DataLoader, task, outcomePath string) error {
	return evalPass(ctx, run, s.processor, epoch, loader, task, outcomePath)
}
