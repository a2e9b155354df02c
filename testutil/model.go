package testutil

import (
	"context"
	"encoding/json"

	"github.com/tuanio/noisy-student-training-aped/asr"
	"github.com/tuanio/noisy-student-training-aped/tensor"
)

// ForwardCall records the arguments of one FakeModel.Forward invocation.
type ForwardCall struct {
	Targets    [][]int32
	TargetLens []int
	Predict    bool
}

// FakeModel is a scriptable asr.Model. Forward returns a fixed loss and
// records its arguments; Recognize delegates to RecognizeFunc when set and
// otherwise yields "pseudo" for every example.
type FakeModel struct {
	ModelName string
	Loss      float64

	// RecognizeFunc, when set, produces the decode output for a batch of
	// the given size.
	RecognizeFunc func(size int) []string

	ForwardCalls   []ForwardCall
	BackwardCalls  int
	ZeroGradCalls  int
	RecognizeCalls int
	Training       bool

	params []*tensor.Tensor
	state  json.RawMessage
}

// NewFakeModel creates a fake with one small parameter tensor so optimizer
// steps have something to act on.
func NewFakeModel(name string) *FakeModel {
	p := tensor.New(2, 2)
	p.Fill(0.5)
	return &FakeModel{
		ModelName: name,
		Loss:      1.0,
		params:    []*tensor.Tensor{p},
		state:     json.RawMessage(`{"w":[0.5]}`),
	}
}

func (m *FakeModel) Name() string { return m.ModelName }

func (m *FakeModel) Forward(_ context.Context, _ *tensor.Tensor, featLens []int, targets [][]int32, targetLens []int, predict bool) (*asr.ForwardResult, error) {
	m.ForwardCalls = append(m.ForwardCalls, ForwardCall{
		Targets:    targets,
		TargetLens: targetLens,
		Predict:    predict,
	})
	return &asr.ForwardResult{
		Outputs:    tensor.New(len(featLens), 1),
		OutputLens: featLens,
		Loss:       m.Loss,
	}, nil
}

func (m *FakeModel) Backward() error {
	m.BackwardCalls++
	for _, p := range m.params {
		for i := range p.Grad() {
			p.Grad()[i] = 0.1
		}
	}
	return nil
}

func (m *FakeModel) Recognize(_ context.Context, _ *tensor.Tensor, featLens []int) ([]string, error) {
	m.RecognizeCalls++
	if m.RecognizeFunc != nil {
		return m.RecognizeFunc(len(featLens)), nil
	}
	out := make([]string, len(featLens))
	for i := range out {
		out[i] = "pseudo"
	}
	return out, nil
}

func (m *FakeModel) Parameters() []*tensor.Tensor { return m.params }

func (m *FakeModel) ZeroGrad() {
	m.ZeroGradCalls++
	for _, p := range m.params {
		p.ZeroGrad()
	}
}

func (m *FakeModel) SetTraining(training bool) { m.Training = training }

func (m *FakeModel) StateDict() (json.RawMessage, error) { return m.state, nil }

func (m *FakeModel) LoadStateDict(state json.RawMessage) error {
	m.state = state
	return nil
}

func (m *FakeModel) Hyperparameters() map[string]any {
	return map[string]any{"name": m.ModelName}
}
