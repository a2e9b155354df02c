package config

import (
	"bytes"
	"encoding/json"

	"github.com/tuanio/noisy-student-training-aped/errors"
	"github.com/tuanio/noisy-student-training-aped/logger"
	"github.com/tuanio/noisy-student-training-aped/tensor"
	"github.com/tuanio/noisy-student-training-aped/validation"
)

// Scheduler advancement granularity.
const (
	IntervalEpoch = "epoch"
	IntervalStep  = "step"
)

// TrainingConfig describes one training run. It is immutable after
// construction except when overwritten wholesale by a restored checkpoint.
type TrainingConfig struct {
	MaxEpochs      int             `json:"max_epochs" yaml:"max_epochs" mapstructure:"max_epochs" validate:"required,gt=0"`
	ExperimentPath string          `json:"experiment_path" yaml:"experiment_path" mapstructure:"experiment_path" validate:"required"`
	Device         string          `json:"device" yaml:"device" mapstructure:"device"`
	Optimizer      OptimizerConfig `json:"optimizer" yaml:"optimizer" mapstructure:"optimizer"`
	Scheduler      SchedulerConfig `json:"scheduler" yaml:"scheduler" mapstructure:"scheduler"`
	Tracking       TrackingConfig  `json:"tracking" yaml:"tracking" mapstructure:"tracking"`
	Logging        logger.Config   `json:"logging" yaml:"logging" mapstructure:"logging"`
}

// OptimizerConfig names the optimizer and carries its hyperparameters.
type OptimizerConfig struct {
	Name        string  `json:"name" yaml:"name" mapstructure:"name" validate:"required"`
	LR          float64 `json:"lr" yaml:"lr" mapstructure:"lr" validate:"required,gt=0"`
	Momentum    float64 `json:"momentum,omitempty" yaml:"momentum" mapstructure:"momentum"`
	WeightDecay float64 `json:"weight_decay,omitempty" yaml:"weight_decay" mapstructure:"weight_decay"`
	Beta1       float64 `json:"beta1,omitempty" yaml:"beta1" mapstructure:"beta1"`
	Beta2       float64 `json:"beta2,omitempty" yaml:"beta2" mapstructure:"beta2"`
	Eps         float64 `json:"eps,omitempty" yaml:"eps" mapstructure:"eps"`
	Nesterov    bool    `json:"nesterov,omitempty" yaml:"nesterov" mapstructure:"nesterov"`
}

// SchedulerConfig names the learning-rate schedule and its hyperparameters.
// TotalSteps is computed by the epoch controller for the one-cycle policy
// and must not be set by hand.
type SchedulerConfig struct {
	Name           string  `json:"name" yaml:"name" mapstructure:"name" validate:"required"`
	Interval       string  `json:"interval" yaml:"interval" mapstructure:"interval" validate:"oneof=epoch step"`
	Gamma          float64 `json:"gamma,omitempty" yaml:"gamma" mapstructure:"gamma"`
	StepSize       int     `json:"step_size,omitempty" yaml:"step_size" mapstructure:"step_size"`
	TMax           int     `json:"t_max,omitempty" yaml:"t_max" mapstructure:"t_max"`
	EtaMin         float64 `json:"eta_min,omitempty" yaml:"eta_min" mapstructure:"eta_min"`
	MaxLR          float64 `json:"max_lr,omitempty" yaml:"max_lr" mapstructure:"max_lr"`
	PctStart       float64 `json:"pct_start,omitempty" yaml:"pct_start" mapstructure:"pct_start"`
	DivFactor      float64 `json:"div_factor,omitempty" yaml:"div_factor" mapstructure:"div_factor"`
	FinalDivFactor float64 `json:"final_div_factor,omitempty" yaml:"final_div_factor" mapstructure:"final_div_factor"`
	TotalSteps     int     `json:"total_steps,omitempty" yaml:"total_steps" mapstructure:"total_steps"`
}

// TrackingConfig gates scalar metric emission to the external sink.
type TrackingConfig struct {
	Enabled  bool              `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Settings map[string]string `json:"settings,omitempty" yaml:"settings" mapstructure:"settings"`
}

// ApplyDefaults fills zero-valued fields with sensible defaults.
func (c *TrainingConfig) ApplyDefaults() {
	if c.Device == "" {
		c.Device = tensor.DeviceCPU
	}
	if c.Scheduler.Interval == "" {
		c.Scheduler.Interval = IntervalEpoch
	}
	if c.Tracking.Settings == nil {
		c.Tracking.Settings = make(map[string]string)
	}
	c.Logging.ApplyDefaults()
}

// Validate checks the configuration before a run starts.
func (c *TrainingConfig) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	v := validation.New()
	v.Check(tensor.ValidDevice(c.Device), "device", "must be cpu, cuda, or cuda:N")
	if err := v.Error(); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return errors.InvalidConfig("logging", err.Error())
	}
	return nil
}

// ToJSON serializes the configuration field-by-field for checkpointing.
func (c *TrainingConfig) ToJSON() ([]byte, error) {
	return json.Marshal(c)
}

// FromJSON deserializes a checkpointed configuration. Unknown fields are
// rejected rather than silently attached, and the result is re-validated.
func FromJSON(data []byte) (*TrainingConfig, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var cfg TrainingConfig
	if err := dec.Decode(&cfg); err != nil {
		return nil, errors.InvalidConfig("", "stored hyperparameters do not match the configuration schema").WithCause(err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
