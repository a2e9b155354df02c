// Package validation provides input validation for training configuration.
//
// It supports both struct tag validation (using the validator library) and
// programmatic validation with error collection. Struct tag validation is
// the path config types take before a run starts; the programmatic form
// covers cross-field rules tags cannot express.
//
// # Struct Tag Validation
//
//	type OptimizerConfig struct {
//	    Name string  `validate:"required"`
//	    LR   float64 `validate:"required,gt=0"`
//	}
//	err := validation.Validate(cfg)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Check(cfg.MaxEpochs > 0, "max_epochs", "must be positive")
//	err := v.Error()
package validation
