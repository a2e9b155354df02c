package checkpoint

import "encoding/json"

// TrainerState is the trainer checkpoint blob: the opaque numerical state
// of the optimizer and scheduler plus the full set of controller
// hyperparameters, serialized field-by-field.
type TrainerState struct {
	RunID          string          `json:"run_id,omitempty"`
	Epoch          int             `json:"epoch"`
	Step           int             `json:"step"`
	OptimizerState json.RawMessage `json:"optimizer_state"`
	SchedulerState json.RawMessage `json:"scheduler_state"`
	Hyperparams    json.RawMessage `json:"hyperparams"`
}

// ModelState is the model checkpoint blob: opaque weights plus the model's
// named construction hyperparameters.
type ModelState struct {
	State       json.RawMessage `json:"model_state"`
	Hyperparams map[string]any  `json:"hyperparams,omitempty"`
}
