// Package optim implements the optimizers and learning-rate schedulers the
// training harness constructs by name. Both expose their numerical state as
// opaque JSON blobs so the checkpoint store can persist and restore them
// byte-for-byte, and both are built through closed registries that reject
// unsupported names with a descriptive error.
package optim
