package optim

import (
	"encoding/json"
	"math"

	"github.com/tuanio/noisy-student-training-aped/errors"
)

// Scheduler adjusts the bound optimizer's learning rate. Step is called
// once per epoch or once per batch depending on the configured interval,
// never both.
type Scheduler interface {
	Name() string
	// Step advances the schedule one interval and applies the new rate.
	Step()
	// LastLR returns the most recently applied learning rate.
	LastLR() float64
	// StateDict exports the scheduler's numerical state.
	StateDict() (json.RawMessage, error)
	// LoadStateDict restores state exported by StateDict.
	LoadStateDict(state json.RawMessage) error
}

type schedulerState struct {
	Count  int     `json:"count"`
	LastLR float64 `json:"last_lr"`
}

// schedulerBase carries the counter and optimizer binding shared by every
// schedule.
type schedulerBase struct {
	opt    Optimizer
	count  int
	lastLR float64
}

func (b *schedulerBase) LastLR() float64 { return b.lastLR }

func (b *schedulerBase) apply(lr float64) {
	b.opt.SetLR(lr)
	b.lastLR = lr
}

func (b *schedulerBase) StateDict() (json.RawMessage, error) {
	return json.Marshal(schedulerState{Count: b.count, LastLR: b.lastLR})
}

func (b *schedulerBase) LoadStateDict(state json.RawMessage) error {
	var st schedulerState
	if err := json.Unmarshal(state, &st); err != nil {
		return errors.New(errors.ErrCodeCheckpointCorrupt, "scheduler state blob is not decodable").WithCause(err)
	}
	b.count = st.Count
	b.lastLR = st.LastLR
	b.opt.SetLR(st.LastLR)
	return nil
}

// ConstantScheduler - no change to the learning rate.
type ConstantScheduler struct {
	schedulerBase
}

// Constant creates a scheduler that leaves the learning rate untouched.
func Constant(opt Optimizer) *ConstantScheduler {
	return &ConstantScheduler{schedulerBase{opt: opt, lastLR: opt.LR()}}
}

func (c *ConstantScheduler) Name() string { return "constant" }

func (c *ConstantScheduler) Step() {
	c.count++
	c.apply(c.opt.LR())
}

// StepDecayScheduler - drops the rate by a factor every N intervals.
type StepDecayScheduler struct {
	schedulerBase
	baseLR   float64
	gamma    float64
	stepSize int
}

// StepDecayConfig holds step-decay hyperparameters.
type StepDecayConfig struct {
	Gamma    float64
	StepSize int
}

// StepDecay creates a step-decay scheduler bound to opt.
func StepDecay(opt Optimizer, cfg StepDecayConfig) *StepDecayScheduler {
	if cfg.StepSize <= 0 {
		cfg.StepSize = 1
	}
	return &StepDecayScheduler{
		schedulerBase: schedulerBase{opt: opt, lastLR: opt.LR()},
		baseLR:        opt.LR(),
		gamma:         cfg.Gamma,
		stepSize:      cfg.StepSize,
	}
}

func (s *StepDecayScheduler) Name() string { return "step_decay" }

func (s *StepDecayScheduler) Step() {
	s.count++
	s.apply(s.baseLR * math.Pow(s.gamma, float64(s.count/s.stepSize)))
}

// ExponentialDecayScheduler - multiplies the rate by gamma every interval.
type ExponentialDecayScheduler struct {
	schedulerBase
	baseLR float64
	gamma  float64
}

// ExponentialDecay creates an exponential-decay scheduler bound to opt.
func ExponentialDecay(opt Optimizer, gamma float64) *ExponentialDecayScheduler {
	return &ExponentialDecayScheduler{
		schedulerBase: schedulerBase{opt: opt, lastLR: opt.LR()},
		baseLR:        opt.LR(),
		gamma:         gamma,
	}
}

func (e *ExponentialDecayScheduler) Name() string { return "exponential_decay" }

func (e *ExponentialDecayScheduler) Step() {
	e.count++
	e.apply(e.baseLR * math.Pow(e.gamma, float64(e.count)))
}

// CosineAnnealingScheduler - cosine annealing from the base rate to etaMin
// over tMax intervals.
type CosineAnnealingScheduler struct {
	schedulerBase
	baseLR float64
	etaMin float64
	tMax   int
}

// CosineAnnealingConfig holds cosine-annealing hyperparameters.
type CosineAnnealingConfig struct {
	TMax   int
	EtaMin float64
}

// CosineAnnealing creates a cosine-annealing scheduler bound to opt.
func CosineAnnealing(opt Optimizer, cfg CosineAnnealingConfig) *CosineAnnealingScheduler {
	if cfg.TMax <= 0 {
		cfg.TMax = 1
	}
	return &CosineAnnealingScheduler{
		schedulerBase: schedulerBase{opt: opt, lastLR: opt.LR()},
		baseLR:        opt.LR(),
		etaMin:        cfg.EtaMin,
		tMax:          cfg.TMax,
	}
}

func (c *CosineAnnealingScheduler) Name() string { return "cosine_annealing" }

func (c *CosineAnnealingScheduler) Step() {
	c.count++
	frac := float64(c.count) / float64(c.tMax)
	if frac > 1 {
		frac = 1
	}
	c.apply(c.etaMin + 0.5*(c.baseLR-c.etaMin)*(1+math.Cos(math.Pi*frac)))
}

// OneCycleScheduler - one-cycle policy: cosine ramp from an initial rate up
// to maxLR over the warmup fraction, then cosine ramp down to a final rate.
// Its phase boundaries depend on knowing the full step budget up front, so
// TotalSteps must be the batch count times the epoch budget.
type OneCycleScheduler struct {
	schedulerBase
	maxLR      float64
	initialLR  float64
	finalLR    float64
	totalSteps int
	upSteps    int
}

// OneCycleConfig holds one-cycle hyperparameters.
type OneCycleConfig struct {
	MaxLR          float64
	TotalSteps     int
	PctStart       float64
	DivFactor      float64
	FinalDivFactor float64
}

// OneCycle creates a one-cycle scheduler bound to opt and applies the
// initial warmup rate immediately.
func OneCycle(opt Optimizer, cfg OneCycleConfig) (*OneCycleScheduler, error) {
	if cfg.TotalSteps <= 0 {
		return nil, errors.InvalidConfig("total_steps", "one-cycle schedule requires the full step budget up front")
	}
	if cfg.PctStart <= 0 || cfg.PctStart >= 1 {
		cfg.PctStart = 0.3
	}
	if cfg.DivFactor == 0 {
		cfg.DivFactor = 25
	}
	if cfg.FinalDivFactor == 0 {
		cfg.FinalDivFactor = 1e4
	}
	initial := cfg.MaxLR / cfg.DivFactor
	s := &OneCycleScheduler{
		schedulerBase: schedulerBase{opt: opt},
		maxLR:         cfg.MaxLR,
		initialLR:     initial,
		finalLR:       initial / cfg.FinalDivFactor,
		totalSteps:    cfg.TotalSteps,
		upSteps:       int(cfg.PctStart * float64(cfg.TotalSteps)),
	}
	if s.upSteps < 1 {
		s.upSteps = 1
	}
	s.apply(initial)
	return s, nil
}

func (o *OneCycleScheduler) Name() string { return "onecycle" }

func (o *OneCycleScheduler) Step() {
	if o.count < o.totalSteps {
		o.count++
	}
	o.apply(o.rateAt(o.count))
}

// Remaining reports how many schedule steps are left before the final rate.
func (o *OneCycleScheduler) Remaining() int {
	return o.totalSteps - o.count
}

func (o *OneCycleScheduler) rateAt(step int) float64 {
	if step <= o.upSteps {
		return annealCos(o.initialLR, o.maxLR, float64(step)/float64(o.upSteps))
	}
	down := float64(step-o.upSteps) / float64(o.totalSteps-o.upSteps)
	return annealCos(o.maxLR, o.finalLR, down)
}

// annealCos interpolates between start and end on a half cosine.
func annealCos(start, end, frac float64) float64 {
	return end + (start-end)/2*(1+math.Cos(math.Pi*frac))
}
