package asr

import (
	"context"

	"github.com/tuanio/noisy-student-training-aped/tensor"
)

// Batch is one data-loader step. The supervised path fills Targets and
// TargetLens; the distillation path leaves them empty and fills
// Transcripts, a side-channel mapping batch-local indices to ground-truth
// transcripts that must override the teacher's pseudo-label there.
type Batch struct {
	Features    *tensor.Tensor
	FeatureLens []int
	Targets     [][]int32
	TargetLens  []int
	Transcripts map[int]string
}

// Size returns the number of examples in the batch.
func (b Batch) Size() int { return len(b.FeatureLens) }

// To moves the batch's feature tensor to the named device.
func (b Batch) To(device string) (Batch, error) {
	if b.Features == nil {
		return b, nil
	}
	feats, err := b.Features.To(device)
	if err != nil {
		return b, err
	}
	b.Features = feats
	return b, nil
}

// DataLoader yields a finite, restartable sequence of batches. Len is the
// batch count; schedulers that need the full step budget up front use it.
type DataLoader interface {
	// Len returns the number of batches one pass produces.
	Len() int
	// Reset rewinds the loader to the first batch.
	Reset() error
	// Next returns the next batch. Returns (zero, false, nil) when exhausted.
	Next(ctx context.Context) (Batch, bool, error)
}
