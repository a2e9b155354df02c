// Package config defines the training configuration model and its loader.
//
// A run is described by a TrainingConfig: epoch budget, experiment
// directory, compute device, optimizer and scheduler settings, metric
// tracking, and logging. Configuration is read from a YAML file plus
// optional .env overrides, validated before the run starts, and serialized
// field-by-field into every trainer checkpoint so a restored run resumes
// with the exact hyperparameters it was saved with.
//
//	cfg, err := config.Load("train.yml")
//	if err != nil { ... }
package config
