// Package checkpoint implements the versioned on-disk store for training
// state. Every save creates a fresh version_N subdirectory under the
// experiment path, N being the count of existing version_* siblings, and
// writes two JSON blobs into it: the trainer state (optimizer, scheduler,
// hyperparameters) and the model state (weights, model hyperparameters).
// Existing version directories are never touched, so an interrupted save
// cannot corrupt prior checkpoints and a killed run resumes from the
// highest-numbered version.
package checkpoint
