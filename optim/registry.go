package optim

import (
	"sort"

	"github.com/tuanio/noisy-student-training-aped/config"
	"github.com/tuanio/noisy-student-training-aped/errors"
)

// Supported optimizer names.
const (
	OptimizerSGD   = "sgd"
	OptimizerAdam  = "adam"
	OptimizerAdamW = "adamw"
)

// Supported scheduler names.
const (
	SchedulerOneCycle         = "onecycle"
	SchedulerStepDecay        = "step_decay"
	SchedulerExponentialDecay = "exponential_decay"
	SchedulerCosineAnnealing  = "cosine_annealing"
	SchedulerConstant         = "constant"
)

var optimizerFactories = map[string]func(config.OptimizerConfig) Optimizer{
	OptimizerSGD: func(cfg config.OptimizerConfig) Optimizer {
		return SGD(SGDConfig{
			LR:          cfg.LR,
			Momentum:    cfg.Momentum,
			WeightDecay: cfg.WeightDecay,
			Nesterov:    cfg.Nesterov,
		})
	},
	OptimizerAdam: func(cfg config.OptimizerConfig) Optimizer {
		return Adam(adamConfigFrom(cfg))
	},
	OptimizerAdamW: func(cfg config.OptimizerConfig) Optimizer {
		return AdamW(adamConfigFrom(cfg))
	},
}

var schedulerFactories = map[string]func(config.SchedulerConfig, Optimizer) (Scheduler, error){
	SchedulerOneCycle: func(cfg config.SchedulerConfig, opt Optimizer) (Scheduler, error) {
		return OneCycle(opt, OneCycleConfig{
			MaxLR:          cfg.MaxLR,
			TotalSteps:     cfg.TotalSteps,
			PctStart:       cfg.PctStart,
			DivFactor:      cfg.DivFactor,
			FinalDivFactor: cfg.FinalDivFactor,
		})
	},
	SchedulerStepDecay: func(cfg config.SchedulerConfig, opt Optimizer) (Scheduler, error) {
		return StepDecay(opt, StepDecayConfig{Gamma: cfg.Gamma, StepSize: cfg.StepSize}), nil
	},
	SchedulerExponentialDecay: func(cfg config.SchedulerConfig, opt Optimizer) (Scheduler, error) {
		return ExponentialDecay(opt, cfg.Gamma), nil
	},
	SchedulerCosineAnnealing: func(cfg config.SchedulerConfig, opt Optimizer) (Scheduler, error) {
		return CosineAnnealing(opt, CosineAnnealingConfig{TMax: cfg.TMax, EtaMin: cfg.EtaMin}), nil
	},
	SchedulerConstant: func(cfg config.SchedulerConfig, opt Optimizer) (Scheduler, error) {
		return Constant(opt), nil
	},
}

func adamConfigFrom(cfg config.OptimizerConfig) AdamConfig {
	return AdamConfig{
		LR:          cfg.LR,
		Beta1:       cfg.Beta1,
		Beta2:       cfg.Beta2,
		Eps:         cfg.Eps,
		WeightDecay: cfg.WeightDecay,
	}
}

// NewOptimizer builds the optimizer named in cfg.
func NewOptimizer(cfg config.OptimizerConfig) (Optimizer, error) {
	factory, ok := optimizerFactories[cfg.Name]
	if !ok {
		return nil, errors.UnsupportedOptimizer(cfg.Name, OptimizerNames())
	}
	return factory(cfg), nil
}

// NewScheduler builds the scheduler named in cfg, bound to opt.
func NewScheduler(cfg config.SchedulerConfig, opt Optimizer) (Scheduler, error) {
	factory, ok := schedulerFactories[cfg.Name]
	if !ok {
		return nil, errors.UnsupportedScheduler(cfg.Name, SchedulerNames())
	}
	return factory(cfg, opt)
}

// OptimizerNames returns the sorted closed set of supported optimizers.
func OptimizerNames() []string {
	names := make([]string, 0, len(optimizerFactories))
	for name := range optimizerFactories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SchedulerNames returns the sorted closed set of supported schedulers.
func SchedulerNames() []string {
	names := make([]string, 0, len(schedulerFactories))
	for name := range schedulerFactories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
