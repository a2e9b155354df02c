package asr

import (
	"context"
	"encoding/json"

	"github.com/tuanio/noisy-student-training-aped/tensor"
)

// ForwardResult is what one model pass over a batch produces.
type ForwardResult struct {
	// Outputs holds the frame-level predictions.
	Outputs *tensor.Tensor
	// OutputLens gives the valid length of each example's prediction.
	OutputLens []int
	// Loss is the scalar training criterion for the batch.
	Loss float64
}

// Model is the capability set the harness requires from an ASR model.
// Implementations wrap the actual network and its numerical kernels.
type Model interface {
	// Name identifies the model class; it appears in checkpoint filenames.
	Name() string

	// Forward runs the model over a batch. With predict set, the model runs
	// its inference head instead of teacher forcing; the returned loss is
	// still computed against the targets.
	Forward(ctx context.Context, feats *tensor.Tensor, featLens []int, targets [][]int32, targetLens []int, predict bool) (*ForwardResult, error)

	// Backward propagates the last Forward's loss into the parameter
	// gradient buffers. Call once per Forward.
	Backward() error

	// Recognize decodes features into text hypotheses, one per example.
	Recognize(ctx context.Context, feats *tensor.Tensor, featLens []int) ([]string, error)

	// Parameters exposes the trainable tensors; each carries its own
	// gradient buffer.
	Parameters() []*tensor.Tensor

	// ZeroGrad clears every parameter's gradient buffer.
	ZeroGrad()

	// SetTraining toggles training mode (dropout, batch-norm statistics).
	SetTraining(training bool)

	// StateDict exports the model weights as an opaque serializable blob.
	StateDict() (json.RawMessage, error)

	// LoadStateDict restores weights exported by StateDict.
	LoadStateDict(state json.RawMessage) error

	// Hyperparameters exports the named construction hyperparameters for
	// the model checkpoint blob.
	Hyperparameters() map[string]any
}

// TextProcessor converts between transcripts, tokens, and integer IDs.
type TextProcessor interface {
	// Tokenize splits a transcript into tokens.
	Tokenize(text string) []string
	// TextToIDs encodes tokens as vocabulary IDs.
	TextToIDs(tokens []string) []int32
	// IDsToText decodes vocabulary IDs back into a transcript.
	IDsToText(ids []int32) string
}
