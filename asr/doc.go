// Package asr defines the contracts between the training harness and its
// speech-recognition collaborators: the model family being trained, the
// text processor that maps transcripts to token IDs and back, and the data
// loader that yields batches.
//
// The harness never implements these; models wrap external numerical
// kernels and datasets wrap external corpora. The interfaces here are the
// entire surface the epoch controller and the per-batch strategies touch.
package asr
