// Package testutil provides in-memory fakes for the training harness's
// collaborator interfaces: a scriptable model, a deterministic vocabulary
// text processor, a slice-backed data loader, and a capturing metric sink.
//
// The fakes record every interaction so tests can assert on call order and
// arguments rather than on numerical outcomes.
package testutil
