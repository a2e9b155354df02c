package optim

import (
	"encoding/json"
	"math"

	"github.com/tuanio/noisy-student-training-aped/errors"
	"github.com/tuanio/noisy-student-training-aped/tensor"
)

// Optimizer updates model parameters from their gradient buffers. Exactly
// one instance exists per training run; its state is the single source of
// truth for resumption.
type Optimizer interface {
	Name() string
	// Step applies one update to the parameters using their gradients.
	Step(params []*tensor.Tensor) error
	LR() float64
	SetLR(lr float64)
	// StateDict exports the optimizer's numerical state.
	StateDict() (json.RawMessage, error)
	// LoadStateDict restores state exported by StateDict.
	LoadStateDict(state json.RawMessage) error
}

// SGDOptimizer - stochastic gradient descent with momentum.
type SGDOptimizer struct {
	lr          float64
	momentum    float64
	weightDecay float64
	nesterov    bool
	velocities  [][]float64
}

// SGDConfig holds SGD hyperparameters.
type SGDConfig struct {
	LR          float64
	Momentum    float64
	WeightDecay float64
	Nesterov    bool
}

// SGD creates a stochastic gradient descent optimizer.
func SGD(cfg SGDConfig) *SGDOptimizer {
	return &SGDOptimizer{
		lr:          cfg.LR,
		momentum:    cfg.Momentum,
		weightDecay: cfg.WeightDecay,
		nesterov:    cfg.Nesterov,
	}
}

func (s *SGDOptimizer) Name() string { return "sgd" }

func (s *SGDOptimizer) LR() float64      { return s.lr }
func (s *SGDOptimizer) SetLR(lr float64) { s.lr = lr }

func (s *SGDOptimizer) Step(params []*tensor.Tensor) error {
	if s.velocities == nil {
		s.velocities = makeBuffers(params)
	}
	if len(s.velocities) != len(params) {
		return errors.ShapeMismatch("optimizer state does not match parameter count")
	}
	for i, p := range params {
		data, grads := p.Data(), p.Grad()
		v := s.velocities[i]
		for j := range data {
			grad := grads[j]
			if s.weightDecay != 0 {
				grad += s.weightDecay * data[j]
			}
			if s.momentum != 0 {
				v[j] = s.momentum*v[j] + grad
				if s.nesterov {
					grad = grad + s.momentum*v[j]
				} else {
					grad = v[j]
				}
			}
			data[j] -= s.lr * grad
		}
	}
	return nil
}

type sgdState struct {
	LR         float64     `json:"lr"`
	Velocities [][]float64 `json:"velocities"`
}

func (s *SGDOptimizer) StateDict() (json.RawMessage, error) {
	return json.Marshal(sgdState{LR: s.lr, Velocities: s.velocities})
}

func (s *SGDOptimizer) LoadStateDict(state json.RawMessage) error {
	var st sgdState
	if err := json.Unmarshal(state, &st); err != nil {
		return errors.New(errors.ErrCodeCheckpointCorrupt, "sgd state blob is not decodable").WithCause(err)
	}
	s.lr = st.LR
	s.velocities = st.Velocities
	return nil
}

// AdamOptimizer - adaptive moment estimation, optionally with decoupled
// weight decay (AdamW).
type AdamOptimizer struct {
	lr          float64
	beta1       float64
	beta2       float64
	eps         float64
	weightDecay float64
	decoupled   bool
	m           [][]float64
	v           [][]float64
	t           int
}

// AdamConfig holds Adam/AdamW hyperparameters.
type AdamConfig struct {
	LR          float64
	Beta1       float64
	Beta2       float64
	Eps         float64
	WeightDecay float64
}

// Adam creates an Adam optimizer with L2-coupled weight decay.
func Adam(cfg AdamConfig) *AdamOptimizer {
	return newAdam(cfg, false)
}

// AdamW creates an Adam optimizer with decoupled weight decay.
func AdamW(cfg AdamConfig) *AdamOptimizer {
	return newAdam(cfg, true)
}

func newAdam(cfg AdamConfig, decoupled bool) *AdamOptimizer {
	if cfg.Beta1 == 0 {
		cfg.Beta1 = 0.9
	}
	if cfg.Beta2 == 0 {
		cfg.Beta2 = 0.999
	}
	if cfg.Eps == 0 {
		cfg.Eps = 1e-8
	}
	return &AdamOptimizer{
		lr:          cfg.LR,
		beta1:       cfg.Beta1,
		beta2:       cfg.Beta2,
		eps:         cfg.Eps,
		weightDecay: cfg.WeightDecay,
		decoupled:   decoupled,
	}
}

func (a *AdamOptimizer) Name() string {
	if a.decoupled {
		return "adamw"
	}
	return "adam"
}

func (a *AdamOptimizer) LR() float64      { return a.lr }
func (a *AdamOptimizer) SetLR(lr float64) { a.lr = lr }

func (a *AdamOptimizer) Step(params []*tensor.Tensor) error {
	if a.m == nil {
		a.m = makeBuffers(params)
		a.v = makeBuffers(params)
	}
	if len(a.m) != len(params) {
		return errors.ShapeMismatch("optimizer state does not match parameter count")
	}
	a.t++
	bc1 := 1 - math.Pow(a.beta1, float64(a.t))
	bc2 := 1 - math.Pow(a.beta2, float64(a.t))

	for i, p := range params {
		data, grads := p.Data(), p.Grad()
		m, v := a.m[i], a.v[i]
		for j := range data {
			grad := grads[j]
			if a.weightDecay != 0 && !a.decoupled {
				grad += a.weightDecay * data[j]
			}
			m[j] = a.beta1*m[j] + (1-a.beta1)*grad
			v[j] = a.beta2*v[j] + (1-a.beta2)*grad*grad
			mHat := m[j] / bc1
			vHat := v[j] / bc2
			update := a.lr * mHat / (math.Sqrt(vHat) + a.eps)
			if a.weightDecay != 0 && a.decoupled {
				update += a.lr * a.weightDecay * data[j]
			}
			data[j] -= update
		}
	}
	return nil
}

type adamState struct {
	LR float64     `json:"lr"`
	T  int         `json:"t"`
	M  [][]float64 `json:"m"`
	V  [][]float64 `json:"v"`
}

func (a *AdamOptimizer) StateDict() (json.RawMessage, error) {
	return json.Marshal(adamState{LR: a.lr, T: a.t, M: a.m, V: a.v})
}

func (a *AdamOptimizer) LoadStateDict(state json.RawMessage) error {
	var st adamState
	if err := json.Unmarshal(state, &st); err != nil {
		return errors.New(errors.ErrCodeCheckpointCorrupt, "adam state blob is not decodable").WithCause(err)
	}
	a.lr = st.LR
	a.t = st.T
	a.m = st.M
	a.v = st.V
	return nil
}

func makeBuffers(params []*tensor.Tensor) [][]float64 {
	buffers := make([][]float64, len(params))
	for i, p := range params {
		buffers[i] = make([]float64, p.Size())
	}
	return buffers
}
